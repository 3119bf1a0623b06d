package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ParseJSON decodes the request body into the given destination
func ParseJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes the request body and writes a 400 response on failure.
// Returns false when decoding failed and the response has already been written.
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := ParseJSON(r, dst); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// ParseQueryString returns the named query parameter or the default when absent
func ParseQueryString(r *http.Request, name, defaultValue string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return defaultValue
}
