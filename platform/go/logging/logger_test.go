package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerEmitsCloudLoggingFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Component: "api-server", Level: "info", Output: &buf})
	require.NoError(t, err)

	logger.Warn("tenant mismatch", zap.String("tenant_id", "t-1"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "WARNING", entry["severity"])
	require.Equal(t, "tenant mismatch", entry["message"])
	require.Equal(t, "api-server", entry["component"])
	require.Equal(t, "t-1", entry["tenant_id"])
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "chatty"})
	require.Error(t, err)
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: "ERROR", Output: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	require.Zero(t, buf.Len())
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(context.Background()))

	logger := zap.NewExample()
	require.Same(t, logger, OrNop(WithLogger(context.Background(), logger)))
}

func TestRequestLoggerStoresLoggerOnContext(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewLogger(Config{Output: &buf})
	require.NoError(t, err)

	var seen bool
	handler := middleware.RequestID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/influencers", nil))

	require.True(t, seen)
	require.Equal(t, http.StatusTeapot, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "request completed", entry["message"])
	require.Equal(t, float64(http.StatusTeapot), entry["status"])
	require.Equal(t, "/api/v1/influencers", entry["path"])
	require.NotEmpty(t, entry["request_id"])
}
