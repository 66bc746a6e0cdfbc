package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestNew creates and validates an error
func TestNew(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(KindValidation, "Test error", cause)

	if err.Kind != KindValidation {
		t.Errorf("Expected kind %s, got %s", KindValidation, err.Kind)
	}
	if err.Message != "Test error" {
		t.Errorf("Expected message 'Test error', got '%s'", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("Cause not reachable through Unwrap")
	}
}

// TestWithSuggestion adds suggestion to error
func TestWithSuggestion(t *testing.T) {
	err := New(KindValidation, "Test", nil).WithSuggestion("Try something else")

	if !err.HasSuggestion() {
		t.Error("HasSuggestion returned false")
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		fields  map[string]string
		kind    Kind
		want    string
	}{
		{"field errors win", 400, "ignored", map[string]string{"username": "Username taken", "email": "Email invalid"}, KindValidation, "Email invalid, Username taken"},
		{"400 message", 400, "Bad thing", nil, KindValidation, "Bad thing"},
		{"400 default", 400, "", nil, KindValidation, MsgBadRequest},
		{"401 message", 401, "Invalid credentials", nil, KindAuth, "Invalid credentials"},
		{"401 default", 401, "", nil, KindAuth, MsgUnauthorized},
		{"403 default", 403, "", nil, KindForbidden, MsgForbidden},
		{"404 default", 404, "", nil, KindNotFound, MsgNotFound},
		{"500 default", 500, "", nil, KindServer, MsgServer},
		{"503 message", 503, "Maintenance", nil, KindServer, "Maintenance"},
		{"409 default", 409, "", nil, KindUnknown, MsgUnexpected},
		{"fields ignored off 400", 422, "Nope", map[string]string{"a": "b"}, KindUnknown, "Nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus(tt.status, tt.message, tt.fields)
			if err.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", err.Kind, tt.kind)
			}
			if err.Message != tt.want {
				t.Errorf("message = %q, want %q", err.Message, tt.want)
			}
			if err.StatusCode != tt.status && !(tt.kind == KindValidation && err.StatusCode == 400) {
				t.Errorf("status = %d, want %d", err.StatusCode, tt.status)
			}
		})
	}
}

func TestKindHelpers(t *testing.T) {
	wrapped := fmt.Errorf("load feed: %w", FromStatus(404, "", nil))

	if KindOf(wrapped) != KindNotFound {
		t.Errorf("KindOf = %s, want %s", KindOf(wrapped), KindNotFound)
	}
	if !IsKind(wrapped, KindNotFound) {
		t.Error("IsKind should see through wrapping")
	}
	if !errors.Is(wrapped, &Error{Kind: KindNotFound}) {
		t.Error("errors.Is should match by kind")
	}
	if Message(wrapped) != MsgNotFound {
		t.Errorf("Message = %q", Message(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors are unknown")
	}
}

// TestCategorize converts standard errors
func TestCategorize(t *testing.T) {
	if Categorize(nil) != nil {
		t.Error("nil should categorize to nil")
	}

	err := Categorize(errors.New("dial tcp: connection refused"))
	if err.Kind != KindNetwork || err.Message != MsgNetwork {
		t.Errorf("unexpected categorization: %+v", err)
	}

	orig := SessionExpiredError(nil)
	if Categorize(orig) != orig {
		t.Error("existing *Error should be returned as-is")
	}
}

// TestFormatError formats errors for display
func TestFormatError(t *testing.T) {
	if FormatError(nil) != "" {
		t.Error("FormatError(nil) should be empty")
	}

	out := FormatError(ValidationError(map[string]string{"password": "Password too short"}))
	if !strings.Contains(out, "(validation)") {
		t.Errorf("missing kind: %s", out)
	}
	if !strings.Contains(out, "password: Password too short") {
		t.Errorf("missing field line: %s", out)
	}

	out = FormatError(SessionExpiredError(nil))
	if !strings.Contains(out, "Suggestion:") {
		t.Errorf("missing suggestion: %s", out)
	}
}
