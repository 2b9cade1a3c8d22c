package api

import (
	"fmt"
	"net/http"
)

// SizeError is returned when the backend rejects a file for its size. Data is
// the decoded 400 body, e.g. {"size": "File too large"}.
type SizeError struct {
	Data map[string]any
}

func (e *SizeError) Error() string {
	if msg, ok := e.Data["size"].(string); ok && msg != "" {
		return "file too large: " + msg
	}
	return "file too large"
}

// APIError is any other non-2xx answer from an upload lifecycle endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Data       map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

func newResponseError(status int, data map[string]any) error {
	if status == http.StatusBadRequest {
		if _, ok := data["size"]; ok {
			return &SizeError{Data: data}
		}
	}

	msg := http.StatusText(status)
	if detail, ok := data["detail"].(string); ok && detail != "" {
		msg = detail
	}
	return &APIError{StatusCode: status, Message: msg, Data: data}
}
