package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func rateLimitedEngine(r rate.Limit, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(NewRateLimiter(r, burst).RateLimit())
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func doRequest(engine *gin.Engine, remoteAddr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	engine.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitPerClient(t *testing.T) {
	engine := rateLimitedEngine(1, 1)

	assert.Equal(t, http.StatusOK, doRequest(engine, "10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(engine, "10.0.0.1:5000"))

	// A different client has its own budget.
	assert.Equal(t, http.StatusOK, doRequest(engine, "10.0.0.2:5000"))
}

func TestRateLimitBurst(t *testing.T) {
	engine := rateLimitedEngine(1, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doRequest(engine, "10.0.0.3:5000"))
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(engine, "10.0.0.3:5000"))
}
