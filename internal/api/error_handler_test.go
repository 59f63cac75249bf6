package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/usermanager/user-management/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), jerr)
	}
	return rec.Code, body
}

func TestHTTPErrorHandler_InvalidInputHidesWrappedContext(t *testing.T) {
	code, body := renderError(t, fmt.Errorf("issue token: %w", domain.ErrInvalidInput))
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body.Message != "invalid input" {
		t.Fatalf("expected fixed message, got %q", body.Message)
	}
	if body.StatusCode != http.StatusBadRequest || body.Error != http.StatusText(http.StatusBadRequest) {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestHTTPErrorHandler_DomainMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("create: %w", domain.ErrUserExists), http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: %w", domain.ErrInvalidRefreshToken, domain.ErrTokenExpired), http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNoUsers, http.StatusNotFound},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		if code, _ := renderError(t, tc.err); code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, code)
		}
	}
}

func TestHTTPErrorHandler_UnexpectedErrorIsGeneric(t *testing.T) {
	code, body := renderError(t, errors.New("mongo: connection reset by peer"))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if body.Message != "internal server error" {
		t.Fatalf("expected generic message, got %q", body.Message)
	}
}
