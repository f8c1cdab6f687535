package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Kind classifies a failed call so pages can react without inspecting
// status codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindValidation
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	default:
		return "unknown"
	}
}

// Error is the single error shape every API call returns.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("api %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("api %s error (status %d)", e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Invalid builds a validation error for checks done before any request is
// sent, so they surface exactly like server-side rejections.
func Invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

const genericFailure = "Something went wrong!"

// MessageOf returns the server-provided message of err, or fallback when the
// server sent none.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if fallback == "" {
		return genericFailure
	}
	return fallback
}

func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsTokenRejected reports whether the server refused the credentials
// themselves (401), as opposed to refusing one action (403).
func IsTokenRejected(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuthorization && apiErr.Status == http.StatusUnauthorized
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthorization
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindUnknown
	}
}

// messageFields are checked in order before falling back to field errors.
var messageFields = []string{"message", "error", "detail", "non_field_errors"}

// extractMessage pulls a human-readable message out of an error body such as
// {"detail": "..."} or {"email": ["already taken"]}.
func extractMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		var list []any
		if json.Unmarshal(body, &list) == nil {
			return firstString(list)
		}
		return ""
	}

	for _, key := range messageFields {
		if msg := firstString(payload[key]); msg != "" {
			return msg
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg := firstString(payload[k]); msg != "" {
			return k + ": " + msg
		}
	}
	return ""
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := firstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}
