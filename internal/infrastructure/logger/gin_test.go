package logger

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

func init() {
	gin.SetMode(gin.TestMode)
}

func observedEngine(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		c.Next()
	})
	engine.Use(RequestLogger(zap.New(core)))
	return engine, logs
}

func TestRequestLoggerFields(t *testing.T) {
	engine, logs := observedEngine(t)
	engine.GET("/projects", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects?limit=5", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "HTTP request", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, http.MethodGet, fields["method"])
	assert.Equal(t, "/projects", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "limit=5", fields["query"])
	assert.Contains(t, fields, "latency")
}

func TestRequestLoggerOmitsEmptyQuery(t *testing.T) {
	engine, logs := observedEngine(t)
	engine.GET("/projects", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects", nil))

	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap(), "query")
}

func TestRequestLoggerLevelTracksStatus(t *testing.T) {
	tests := []struct {
		status int
		want   zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		engine, logs := observedEngine(t)
		engine.GET("/status", func(c *gin.Context) {
			c.Status(tt.status)
		})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

		require.Equal(t, 1, logs.Len(), "status %d", tt.status)
		assert.Equal(t, tt.want, logs.All()[0].Level, "status %d", tt.status)
	}
}

func TestRecoveryLogsPanicAndReturns500(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	engine := gin.New()
	engine.Use(Recovery(zap.New(core)))
	engine.GET("/boom", func(c *gin.Context) {
		panic("sheet row out of range")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Panic recovered", entry.Message)
	assert.Equal(t, "/boom", entry.ContextMap()["path"])
}

func TestFromContextReturnsRequestLogger(t *testing.T) {
	engine, logs := observedEngine(t)
	engine.GET("/projects", func(c *gin.Context) {
		FromContext(c).Warn("cache refresh was slow")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects", nil))

	// One entry from the handler plus the access log line.
	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "cache refresh was slow", entry.Message)
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	log := FromContext(c)
	require.NotNil(t, log)
	log.Info("no-op logger accepts writes")
}
