package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned for every failed request: network failures, non-2xx
// statuses and undecodable responses alike.
type Error struct {
	Method string
	Path   string
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	// Message is the backend's error detail, when it sent one.
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api request failed: %s %s", e.Method, e.Path)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": HTTP error! status: %d", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// StatusOf extracts the HTTP status from an API error, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// errorBody covers both FastAPI's {"detail": ...} and the backend's
// {"error": ..., "message": ...} envelopes.
type errorBody struct {
	Detail  any    `json:"detail"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseErrorMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Error != "":
		return body.Error
	case body.Detail != nil:
		if s, ok := body.Detail.(string); ok {
			return s
		}
		b, err := json.Marshal(body.Detail)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return ""
}
