// Package httputil writes JSON responses and translates infrastructure errors
// into HTTP status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"bloodbridge/pkg/platform/sentinel"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps err to a status and code. Internal errors never expose
// their message.
func WriteError(w http.ResponseWriter, err error) {
	status, code := Classify(err)
	body := ErrorBody{Error: code}
	if status < http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		body.Description = err.Error()
	}
	WriteJSON(w, status, body)
}

// Classify returns the HTTP status and error code for err.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, sentinel.ErrInvalidState):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, sentinel.ErrSyncInProgress):
		return http.StatusConflict, "sync_in_progress"
	case errors.Is(err, sentinel.ErrNetworkFailure):
		return http.StatusServiceUnavailable, "offline"
	case errors.Is(err, sentinel.ErrInvalidResponse):
		return http.StatusBadGateway, "upstream_rejected"
	case errors.Is(err, sentinel.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}
