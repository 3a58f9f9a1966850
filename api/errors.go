// ABOUTME: Normalized API error type and sentinel errors
// ABOUTME: Parses the backend's error envelope with fallbacks for legacy shapes
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is wrapped by every 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is wrapped by every 403 response.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is wrapped by every 404 response.
	ErrNotFound = errors.New("not found")
	// ErrNetwork is wrapped when the request never produced an HTTP response.
	ErrNetwork = errors.New("network error")
	// ErrSuperseded is wrapped when a newer request with the same key cancelled this one.
	ErrSuperseded = errors.New("request superseded")
)

// Error is the single error shape returned by Client.Do for failed calls.
// Status is 0 for network failures.
type Error struct {
	Status    int
	Code      string
	Message   string
	Details   any
	Method    string
	Path      string
	RequestID string

	kind  error
	cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}
	if e.Status == 0 {
		b.WriteString("network error")
	} else {
		fmt.Fprintf(&b, "%d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.cause != nil && e.Status == 0 {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// StatusOf returns the HTTP status carried by err, or -1 when err is not an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return -1
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseError builds an *Error from a non-2xx response body. The preferred
// shape is {"success":false,"error":{"code","message","details"}}; it falls
// back to "error" as a string, "detail" as a string or validation list,
// "message", and finally the status text.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status, kind: kindForStatus(status)}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
			e.Message = text
		} else {
			e.Message = http.StatusText(status)
		}
		return e
	}

	if code, ok := raw["code"]; ok {
		_ = json.Unmarshal(code, &e.Code)
	}

	if envelope, ok := raw["error"]; ok {
		var structured errorBody
		if err := json.Unmarshal(envelope, &structured); err == nil {
			if structured.Code != "" {
				e.Code = structured.Code
			}
			e.Message = structured.Message
			if len(structured.Details) > 0 && string(structured.Details) != "null" {
				var details any
				if err := json.Unmarshal(structured.Details, &details); err == nil {
					e.Details = details
				}
			}
		} else {
			var text string
			if err := json.Unmarshal(envelope, &text); err == nil {
				e.Message = text
			}
		}
	}

	if e.Message == "" {
		if detail, ok := raw["detail"]; ok {
			var text string
			if err := json.Unmarshal(detail, &text); err == nil {
				e.Message = text
			} else {
				var items []validationItem
				if err := json.Unmarshal(detail, &items); err == nil && len(items) > 0 {
					msgs := make([]string, 0, len(items))
					for _, item := range items {
						msgs = append(msgs, item.Msg)
					}
					e.Message = strings.Join(msgs, "; ")
					e.Details = items
				}
			}
		}
	}

	if e.Message == "" {
		if msg, ok := raw["message"]; ok {
			_ = json.Unmarshal(msg, &e.Message)
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
