package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{Validationf("bad input"), http.StatusBadRequest},
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{SelfModification("not on yourself"), http.StatusForbidden},
		{NotFound("patient"), http.StatusNotFound},
		{Conflict("cpf", "duplicate"), http.StatusConflict},
		{Transient("upstream down", errors.New("boom")), http.StatusBadGateway},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.Kind.status(); got != tc.status {
			t.Errorf("kind %d: expected %d, got %d", tc.err.Kind, tc.status, got)
		}
	}
}

func serve(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop())
	e.GET("/boom", func(echo.Context) error { return err })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRendersIssues(t *testing.T) {
	rec := serve(t, Validation("invalid payload", map[string]string{"cpf": "invalid CPF"}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Error  string            `json:"error"`
		Issues map[string]string `json:"issues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "invalid payload" || body.Issues["cpf"] != "invalid CPF" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandlerHidesInternals(t *testing.T) {
	rec := serve(t, Internal(errors.New("pq: connection refused")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); got == "" || strings.Contains(got, "connection refused") {
		t.Errorf("internal cause leaked: %s", got)
	}
}

func TestIsKindFollowsWrapping(t *testing.T) {
	err := NotFound("patient")
	wrapped := errors.Join(errors.New("context"), err)

	if !IsKind(wrapped, KindNotFound) {
		t.Errorf("expected wrapped error to match kind")
	}
	if IsKind(wrapped, KindConflict) {
		t.Errorf("kind mismatch should not match")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Errorf("plain error should not match")
	}
}
