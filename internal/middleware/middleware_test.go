package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newEngine(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logger), CORS())
	r.Any("/thing", func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.String(http.StatusMethodNotAllowed, "no")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	r := newEngine(zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, "/thing", nil)
	req.Header.Set("Origin", "https://survey.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://survey.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSBareOptionsReachesRoute(t *testing.T) {
	r := newEngine(zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/thing", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(zap.New(core))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/thing", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodOptions, "/thing", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, "/thing", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}
