package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryParam(t *testing.T) {
	req := httptest.NewRequest("GET", "/plugins.php?plugin_status=active", nil)
	assert.Equal(t, "active", QueryParam(req, "plugin_status", "all"))
	assert.Equal(t, "all", QueryParam(req, "missing", "all"))
}

func TestQueryFlag(t *testing.T) {
	tests := []struct {
		query   string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"network=1", true, false},
		{"network=true", true, false},
		{"network=0", false, false},
		{"network=maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/toolbar?"+tt.query, nil)
			got, err := QueryFlag(req, "network")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireQuery(t *testing.T) {
	w := httptest.NewRecorder()
	v, ok := RequireQuery(w, httptest.NewRequest("GET", "/?plugin=hello.php", nil), "plugin")
	assert.True(t, ok)
	assert.Equal(t, "hello.php", v)

	w = httptest.NewRecorder()
	_, ok = RequireQuery(w, httptest.NewRequest("GET", "/", nil), "plugin")
	assert.False(t, ok)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "plugin is required")
}

func TestReturnTarget(t *testing.T) {
	req := httptest.NewRequest("GET", "/wp-admin/toolbar?current=/wp-admin/edit.php", nil)
	req.Header.Set("Referer", "http://example.com/wp-admin/index.php")
	assert.Equal(t, "/wp-admin/edit.php", ReturnTarget(req))

	req = httptest.NewRequest("GET", "/wp-admin/toolbar", nil)
	req.Header.Set("Referer", "http://example.com/wp-admin/index.php")
	assert.Equal(t, "http://example.com/wp-admin/index.php", ReturnTarget(req))

	req = httptest.NewRequest("GET", "/wp-admin/toolbar?network=1", nil)
	assert.Equal(t, "/wp-admin/toolbar?network=1", ReturnTarget(req))
}
