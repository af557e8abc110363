package middleware_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskapi/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func setupRouter(cfg middleware.BasicAuthConfig) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reached := false

	protected := r.Group("/protected")
	protected.Use(middleware.BasicAuthMiddleware(cfg, zerolog.Nop()))
	protected.GET("/resource", func(c *gin.Context) {
		reached = true
		user, _ := c.Get(middleware.UserKey)
		c.JSON(http.StatusOK, gin.H{"message": "Access granted", "user": user})
	})

	return r, &reached
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

var defaultCfg = middleware.BasicAuthConfig{User: "admin", Password: "password", Realm: "Task API"}

func TestBasicAuthMiddleware_ValidCredentials(t *testing.T) {
	// Arrange
	router, reached := setupRouter(defaultCfg)
	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.Header.Set("Authorization", basic("admin", "password"))

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, *reached)
	assert.Contains(t, resp.Body.String(), `"user":"admin"`)
	assert.Empty(t, resp.Header().Get("WWW-Authenticate"))
}

func TestBasicAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"bearer scheme", "Bearer abc.def.ghi"},
		{"scheme only", "Basic"},
		{"bad base64", "Basic !!!not-base64!!!"},
		{"no separator", "Basic " + base64.StdEncoding.EncodeToString([]byte("adminpassword"))},
		{"wrong user", basic("root", "password")},
		{"wrong password", basic("admin", "hunter2")},
		{"empty credentials", basic("", "")},
		{"password prefix", basic("admin", "pass")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			router, reached := setupRouter(defaultCfg)
			req, _ := http.NewRequest("GET", "/protected/resource", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			// Act
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			// Assert
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.False(t, *reached)
			assert.Equal(t, `Basic realm="Task API"`, resp.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"error":"unauthorized"}`, resp.Body.String())
		})
	}
}

func TestBasicAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	router, _ := setupRouter(defaultCfg)
	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.Header.Set("Authorization", "basic "+base64.StdEncoding.EncodeToString([]byte("admin:password")))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBasicAuthMiddleware_PasswordWithColon(t *testing.T) {
	router, _ := setupRouter(middleware.BasicAuthConfig{User: "admin", Password: "pa:ss:word", Realm: "Task API"})
	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.Header.Set("Authorization", basic("admin", "pa:ss:word"))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBasicAuthMiddleware_BcryptHash(t *testing.T) {
	// Arrange
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	assert.NoError(t, err)
	router, _ := setupRouter(middleware.BasicAuthConfig{
		User:         "admin",
		Password:     "password",
		PasswordHash: string(hash),
		Realm:        "Task API",
	})

	tests := []struct {
		pass string
		want int
	}{
		{"s3cret", http.StatusOK},
		// the plaintext password is ignored once a hash is configured
		{"password", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest("GET", "/protected/resource", nil)
		req.Header.Set("Authorization", basic("admin", tt.pass))

		// Act
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		// Assert
		assert.Equal(t, tt.want, resp.Code, tt.pass)
	}
}

func TestBasicAuthMiddleware_DefaultRealm(t *testing.T) {
	router, _ := setupRouter(middleware.BasicAuthConfig{User: "admin", Password: "password"})
	req, _ := http.NewRequest("GET", "/protected/resource", nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, `Basic realm="Restricted"`, resp.Header().Get("WWW-Authenticate"))
}
