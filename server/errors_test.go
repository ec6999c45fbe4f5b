package server

import (
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := ErrInvalidGrant("code expired")
	if got, want := err.Error(), "invalid_grant: code expired"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_WithRedirect(t *testing.T) {
	base := ErrInvalidScope("scope not declared")
	redirected := base.WithRedirect("http://localhost", "xyz")

	if base.RedirectURI != "" {
		t.Error("WithRedirect() mutated the original error")
	}
	if redirected.RedirectURI != "http://localhost" || redirected.State != "xyz" {
		t.Errorf("WithRedirect() = %+v", redirected)
	}
	if redirected.Code != ErrorCodeInvalidScope {
		t.Errorf("Code = %q, want %q", redirected.Code, ErrorCodeInvalidScope)
	}
}

func TestAsError(t *testing.T) {
	oautherr := ErrInvalidClient("nope")
	wrapped := fmt.Errorf("outer: %w", oautherr)

	got, ok := AsError(wrapped)
	if !ok || got.Code != ErrorCodeInvalidClient {
		t.Errorf("AsError() = %v, %v", got, ok)
	}

	if _, ok := AsError(fmt.Errorf("plain")); ok {
		t.Error("AsError() matched a plain error")
	}
}

func TestErrorConstructors_Statuses(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ErrInvalidRequest("x"), http.StatusBadRequest},
		{ErrInvalidClient("x"), http.StatusUnauthorized},
		{ErrInvalidGrant("x"), http.StatusBadRequest},
		{ErrUnauthorizedClient("x"), http.StatusBadRequest},
		{ErrUnsupportedGrantType("x"), http.StatusBadRequest},
		{ErrUnsupportedResponseType("x"), http.StatusBadRequest},
		{ErrInvalidScope("x"), http.StatusBadRequest},
		{ErrAccessDenied("x"), http.StatusForbidden},
		{ErrInvalidToken("x"), http.StatusUnauthorized},
		{ErrServerError("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if tt.err.Status != tt.status {
			t.Errorf("%s: Status = %d, want %d", tt.err.Code, tt.err.Status, tt.status)
		}
	}
}
