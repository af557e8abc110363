package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskapi/internal/model"
	"taskapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// TaskService is the business layer the handler drives.
type TaskService interface {
	List(ctx context.Context, params service.ListParams) ([]model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, candidate *model.Task) (*model.Task, error)
	Update(ctx context.Context, id string, candidate *model.Task) (*model.Task, error)
	Delete(ctx context.Context, id string) error
}

type TaskHandler struct {
	svc TaskService
}

func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// TaskRequest is the create/update body. Any id, status on create, or
// timestamps sent by the client are ignored.
type TaskRequest struct {
	Title       string     `json:"title" example:"Buy milk"`
	Description string     `json:"description" example:"two liters"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *time.Time `json:"dueDate" example:"2025-01-01T00:00:00Z"`
}

func (r TaskRequest) toModel() *model.Task {
	return &model.Task{
		Title:       r.Title,
		Description: r.Description,
		IsCompleted: r.IsCompleted,
		DueDate:     r.DueDate,
	}
}

// List godoc
// @Summary      List tasks
// @Description  Filters combine with AND. No pagination.
// @Tags         Tasks
// @Produce      json
// @Param        search       query  string  false  "case-insensitive title substring"
// @Param        isCompleted  query  bool    false  "completion status"
// @Param        createdFrom  query  string  false  "inclusive lower bound, RFC 3339"
// @Param        createdTo    query  string  false  "inclusive upper bound, RFC 3339"
// @Param        sortBy       query  string  false  "createdAt, title, dueDate or isCompleted"  default(createdAt)
// @Param        sortDesc     query  bool    false  "descending order"  default(true)
// @Success      200  {array}   model.Task
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Security     BasicAuth
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	params, err := parseListParams(c)
	if err != nil {
		respondError(c, err)
		return
	}

	tasks, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetByID godoc
// @Summary   Get a task
// @Tags      Tasks
// @Produce   json
// @Param     id   path      string  true  "task id (uuid)"
// @Success   200  {object}  model.Task
// @Failure   400  {object}  ErrorResponse
// @Failure   404  {object}  ErrorResponse
// @Security  BasicAuth
// @Router    /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Create godoc
// @Summary      Create a task
// @Description  New tasks always start open; createdAt and updatedAt are set by the server.
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        task  body      TaskRequest  true  "task"
// @Success      201   {object}  model.Task
// @Header       201   {string}  Location  "/tasks/{id}"
// @Failure      400   {object}  ErrorResponse
// @Security     BasicAuth
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	candidate, err := bindTask(c)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.svc.Create(c.Request.Context(), candidate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/tasks/"+task.ID.String())
	c.JSON(http.StatusCreated, task)
}

// Update godoc
// @Summary      Replace a task
// @Description  Replaces title, description, isCompleted and dueDate. id and createdAt never change.
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "task id (uuid)"
// @Param        task  body      TaskRequest  true  "task"
// @Success      200   {object}  model.Task
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Security     BasicAuth
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	candidate, err := bindTask(c)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.svc.Update(c.Request.Context(), c.Param("id"), candidate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary   Delete a task
// @Tags      Tasks
// @Param     id  path  string  true  "task id (uuid)"
// @Success   204  "no content"
// @Failure   400  {object}  ErrorResponse
// @Failure   404  {object}  ErrorResponse
// @Security  BasicAuth
// @Router    /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bindTask decodes the JSON body. A literal null body yields a nil task so the
// service reports it as missing.
func bindTask(c *gin.Context) (*model.Task, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable request body: %v", service.ErrInvalidInput, err)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var req TaskRequest
	if err := binding.JSON.BindBody(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: malformed request body: %v", service.ErrInvalidInput, err)
	}
	return req.toModel(), nil
}

// parseListParams reads the list query string. Empty values count as absent.
func parseListParams(c *gin.Context) (service.ListParams, error) {
	var params service.ListParams
	params.Filter.Search = c.Query("search")
	params.SortBy = c.Query("sortBy")

	if raw := strings.TrimSpace(c.Query("isCompleted")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return params, fmt.Errorf("%w: isCompleted must be true or false", service.ErrInvalidInput)
		}
		params.Filter.IsCompleted = &v
	}

	if raw := strings.TrimSpace(c.Query("sortDesc")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return params, fmt.Errorf("%w: sortDesc must be true or false", service.ErrInvalidInput)
		}
		params.SortDesc = &v
	}

	var err error
	if params.Filter.CreatedFrom, err = parseTimeQuery(c, "createdFrom"); err != nil {
		return params, err
	}
	if params.Filter.CreatedTo, err = parseTimeQuery(c, "createdTo"); err != nil {
		return params, err
	}

	return params, nil
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", service.ErrInvalidInput, key)
	}
	return &t, nil
}
