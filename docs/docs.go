// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/tasks": {
            "get": {
                "security": [{"BasicAuth": []}],
                "description": "Filters combine with AND. No pagination.",
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "List tasks",
                "parameters": [
                    {"type": "string", "description": "case-insensitive title substring", "name": "search", "in": "query"},
                    {"type": "boolean", "description": "completion status", "name": "isCompleted", "in": "query"},
                    {"type": "string", "description": "inclusive lower bound, RFC 3339", "name": "createdFrom", "in": "query"},
                    {"type": "string", "description": "inclusive upper bound, RFC 3339", "name": "createdTo", "in": "query"},
                    {"type": "string", "default": "createdAt", "description": "createdAt, title, dueDate or isCompleted", "name": "sortBy", "in": "query"},
                    {"type": "boolean", "default": true, "description": "descending order", "name": "sortDesc", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Task"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BasicAuth": []}],
                "description": "New tasks always start open; createdAt and updatedAt are set by the server.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Create a task",
                "parameters": [
                    {"description": "task", "name": "task", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.TaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Task"}, "headers": {"Location": {"type": "string", "description": "/tasks/{id}"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "get": {
                "security": [{"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Get a task",
                "parameters": [
                    {"type": "string", "description": "task id (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BasicAuth": []}],
                "description": "Replaces title, description, isCompleted and dueDate. id and createdAt never change.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Replace a task",
                "parameters": [
                    {"type": "string", "description": "task id (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "task", "name": "task", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.TaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BasicAuth": []}],
                "tags": ["Tasks"],
                "summary": "Delete a task",
                "parameters": [
                    {"type": "string", "description": "task id (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "no content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"},
                "error": {"type": "string", "example": "invalid input"},
                "violations": {"type": "array", "items": {"$ref": "#/definitions/model.Violation"}}
            }
        },
        "handler.TaskRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string", "example": "two liters"},
                "dueDate": {"type": "string", "example": "2025-01-01T00:00:00Z"},
                "isCompleted": {"type": "boolean"},
                "title": {"type": "string", "example": "Buy milk"}
            }
        },
        "model.Task": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "dueDate": {"type": "string"},
                "id": {"type": "string"},
                "isCompleted": {"type": "boolean"},
                "title": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.Violation": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BasicAuth": {
            "type": "basic"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Task API",
	Description:      "Create, read, update, delete and query tasks. Every route requires HTTP Basic credentials.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
