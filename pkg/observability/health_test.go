package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func TestHealthCheckerNoDependencies(t *testing.T) {
	status := NewHealthChecker("1.2.3").Check(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Empty(t, status.Dependencies)
}

func TestHealthCheckerCriticalFailure(t *testing.T) {
	h := NewHealthChecker("1.0.0")
	h.AddCheck("storage", true, func(context.Context) error { return errors.New("down") })
	h.AddCheck("plugins", false, func(context.Context) error { return nil })

	status := h.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, StatusUnhealthy, status.Dependencies["storage"].Status)
	assert.Equal(t, "down", status.Dependencies["storage"].Message)
	assert.Equal(t, StatusHealthy, status.Dependencies["plugins"].Status)
}

func TestHealthCheckerDegraded(t *testing.T) {
	h := NewHealthChecker("1.0.0")
	h.AddCheck("watcher", false, func(context.Context) error { return errors.New("stopped") })

	status := h.Check(context.Background())
	assert.Equal(t, StatusDegraded, status.Status)
}

func TestHealthCheckerPinger(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	h := NewHealthChecker("1.0.0")
	h.AddPinger("redis", true, redisPinger{client: client})

	assert.Equal(t, StatusHealthy, h.Check(context.Background()).Status)

	mr.Close()
	assert.Equal(t, StatusUnhealthy, h.Check(context.Background()).Status)
}

func TestHealthRoutes(t *testing.T) {
	healthy := true
	h := NewHealthChecker("1.0.0")
	h.AddCheck("storage", true, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})

	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, h)

	tests := []struct {
		path    string
		healthy bool
		code    int
	}{
		{"/health/live", false, http.StatusOK},
		{"/health/ready", true, http.StatusOK},
		{"/health/ready", false, http.StatusServiceUnavailable},
		{"/health", false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		healthy = tt.healthy
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.code, rec.Code, tt.path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body, "status")
	}
}
