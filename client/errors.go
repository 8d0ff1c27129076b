package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ErrTransport wraps failures to reach the backend or to read its reply.
var ErrTransport = errors.New("backend unreachable")

// APIError is a non-2xx reply. Detail holds the server's own message, if it
// sent one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Message picks the text to show a rider for err: the server's message when
// it sent one, fallback otherwise.
func Message(err error, fallback string) string {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   json.RawMessage `json:"error"`
	Mensaje json.RawMessage `json:"mensaje"`
}

// detailOf reads the message out of an error body, preferring detail, then
// error, then mensaje.
func detailOf(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{eb.Detail, eb.Error, eb.Mensaje} {
		if s := text(raw); s != "" {
			return s
		}
	}
	return ""
}

func text(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, " ")
	}
	return ""
}
