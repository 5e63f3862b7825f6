package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) IsInitialized() bool {
	return m.Called().Bool(0)
}

func (m *mockEnqueuer) Enqueue(distinctID string, event string, properties map[string]any) error {
	return m.Called(distinctID, event, properties).Error(0)
}

func newUsageRouter(client EventEnqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), id))
		}
		c.Next()
	}, PosthogMiddleware(client))
	r.POST("/api/v1/entries/:id/post", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/v1/entries", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r *gin.Engine, method, path, user string) int {
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestPosthogMiddleware_TracksSuccessfulCalls(t *testing.T) {
	client := new(mockEnqueuer)
	client.On("IsInitialized").Return(true)
	client.On("Enqueue", "u1", "api_v1_entries_:id_post", mock.MatchedBy(func(props map[string]any) bool {
		params, ok := props["params"].(map[string]string)
		return ok && params["id"] == "e1" && props["status_code"] == http.StatusOK
	})).Return(errors.New("queue full")).Once()

	r := newUsageRouter(client)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/entries/e1/post", "u1"), "enqueue failures do not change the response")

	client.AssertExpectations(t)
}

func TestPosthogMiddleware_Skips(t *testing.T) {
	client := new(mockEnqueuer)
	client.On("IsInitialized").Return(true)
	r := newUsageRouter(client)

	serve(r, http.MethodGet, "/health", "u1")
	serve(r, http.MethodPost, "/api/v1/entries", "u1")
	serve(r, http.MethodPost, "/api/v1/entries/e1/post", "")
	serve(r, http.MethodGet, "/nowhere", "u1")

	client.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)

	unconfigured := new(mockEnqueuer)
	unconfigured.On("IsInitialized").Return(false)
	serve(newUsageRouter(unconfigured), http.MethodPost, "/api/v1/entries/e1/post", "u1")
	unconfigured.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}
