package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNotFound matches any *Error with status 404.
	ErrNotFound = errors.New("not found")

	// ErrUnexpectedShape is returned when a body is neither an object, an
	// array, nor a {"data": ...} envelope.
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Method    string
	Path      string
	Status    int
	Message   string // server-provided when available, generic otherwise
	RequestID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

func newError(method, path string, status int, requestID string, body []byte) *Error {
	msg := serverMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "request rejected"
	}
	return &Error{
		Method:    method,
		Path:      path,
		Status:    status,
		Message:   msg,
		RequestID: requestID,
	}
}

// serverMessage extracts a human readable message from an error body.
// Understands {"detail": ...}, {"message": ...}, {"error": ...} and
// field error maps like {"name": ["This field is required."]}.
func serverMessage(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 || strings.HasPrefix(text, "<") {
			return ""
		}
		return text
	}

	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		msgs := flatten(obj[k])
		if len(msgs) == 0 {
			continue
		}
		if k == "non_field_errors" {
			parts = append(parts, strings.Join(msgs, " "))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(msgs, " ")))
	}
	return strings.Join(parts, "; ")
}

func flatten(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return nil
}
