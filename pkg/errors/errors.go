package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind categorizes failures surfaced by the API client and dispatchers
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuth           Kind = "auth"
	KindSessionExpired Kind = "session_expired"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindServer         Kind = "server"
	KindNetwork        Kind = "network"
	KindParse          Kind = "parse"
	KindUnknown        Kind = "unknown"
)

// Default user-facing messages
const (
	MsgNetwork        = "Network error. Please check your connection."
	MsgBadRequest     = "Invalid request. Please check your input."
	MsgUnauthorized   = "Authentication failed. Please log in again."
	MsgForbidden      = "You do not have permission to perform this action."
	MsgNotFound       = "Resource not found."
	MsgServer         = "Server error. Please try again later."
	MsgUnexpected     = "An unexpected error occurred. Please try again."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgParse          = "Received an unexpected response from the server."
)

// Error is a normalized failure with a single display message
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Fields     map[string]string
	Cause      error
	Suggestion string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by kind so errors.Is(err, &Error{Kind: KindAuth}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// WithSuggestion adds a helpful suggestion to the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// HasSuggestion returns true if the error has a suggestion
func (e *Error) HasSuggestion() bool {
	return e.Suggestion != ""
}

// New creates a new error of the given kind
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// NetworkError is returned when no response was received
func NetworkError(cause error) *Error {
	err := New(KindNetwork, MsgNetwork, cause)
	err.Suggestion = "Check that the API is reachable (api.base_url) and try again."
	return err
}

// SessionExpiredError is returned to every request waiting on a failed refresh
func SessionExpiredError(cause error) *Error {
	err := New(KindSessionExpired, MsgSessionExpired, cause)
	err.StatusCode = 401
	err.Suggestion = "Run 'sociofeed auth login' to start a new session."
	return err
}

// ParseError reports a response payload that did not match the expected shape
func ParseError(what string, cause error) *Error {
	err := New(KindParse, MsgParse, fmt.Errorf("decode %s: %w", what, cause))
	err.Suggestion = "The API may be a different version than this client expects."
	return err
}

// ValidationError builds a validation error from a field -> message map.
// Messages are joined with ", " in field-name order.
func ValidationError(fields map[string]string) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    JoinFields(fields),
		StatusCode: 400,
		Fields:     fields,
	}
}

// JoinFields joins field messages in a stable order
func JoinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}
	return strings.Join(msgs, ", ")
}

// KindForStatus maps an HTTP status code to an error kind
func KindForStatus(status int) Kind {
	switch {
	case status == 400:
		return KindValidation
	case status == 401:
		return KindAuth
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// DefaultMessage returns the fallback message for an HTTP status code
func DefaultMessage(status int) string {
	switch {
	case status == 400:
		return MsgBadRequest
	case status == 401:
		return MsgUnauthorized
	case status == 403:
		return MsgForbidden
	case status == 404:
		return MsgNotFound
	case status >= 500:
		return MsgServer
	default:
		return MsgUnexpected
	}
}

// FromStatus builds an error for a non-2xx response.
// A 400 carrying field errors wins over message, which wins over the default.
func FromStatus(status int, message string, fields map[string]string) *Error {
	if status == 400 && len(fields) > 0 {
		return ValidationError(fields)
	}
	if message == "" {
		message = DefaultMessage(status)
	}
	err := &Error{
		Kind:       KindForStatus(status),
		Message:    message,
		StatusCode: status,
	}
	switch err.Kind {
	case KindAuth:
		err.Suggestion = "Try logging in again with 'sociofeed auth login'."
	case KindForbidden:
		err.Suggestion = "Make sure you're logged in with the account that owns this resource."
	case KindServer:
		err.Suggestion = "The server encountered an error. Try again in a few moments."
	}
	return err
}

// KindOf returns the kind of err, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the display message for err
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Categorize converts any error into an *Error
func Categorize(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "no such host"),
		strings.Contains(errMsg, "context deadline exceeded"),
		strings.Contains(errMsg, "timeout"):
		return NetworkError(err)
	default:
		return New(KindUnknown, errMsg, err)
	}
}

// FormatError returns a user-friendly error message
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	e := Categorize(err)
	var sb strings.Builder

	sb.WriteString("Error")
	if e.Kind != KindUnknown {
		sb.WriteString(" (")
		sb.WriteString(string(e.Kind))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	sb.WriteString("\n")

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", k, e.Fields[k]))
		}
	}

	if e.HasSuggestion() {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(e.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}
