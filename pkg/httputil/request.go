package httputil

import (
	"fmt"
	"net/http"
	"strconv"
)

// QueryParam returns the named query parameter or def when it is absent
func QueryParam(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

// QueryFlag parses a boolean query parameter. An absent flag is false.
func QueryFlag(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}

// RequireQuery returns the named query parameter. When it is missing a 400
// is written and ok is false.
func RequireQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		WriteBadRequest(w, key+" is required")
		return "", false
	}
	return v, true
}

// ReturnTarget is the admin page a request came from: the current
// parameter, then the Referer, then the request itself.
func ReturnTarget(r *http.Request) string {
	if v := r.URL.Query().Get("current"); v != "" {
		return v
	}
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return r.URL.RequestURI()
}
