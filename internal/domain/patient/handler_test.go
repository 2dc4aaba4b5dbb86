package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

func newTestServer(f *fixture, p auth.Principal) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithPrincipal(c.Request().Context(), p)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	NewHandler(f.svc).RegisterRoutes(api)
	return e
}

func TestHandler_CreateAndList(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, f.principal(auth.RoleManager))

	body := `{"fullName":"Maria Oliveira","cpf":"529.982.247-25","dateOfBirth":"1990-03-15","phone":"(11) 98765-4321"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Pagination.Total != 1 || resp.Pagination.TotalPages != 1 {
		t.Errorf("unexpected listing: %s", rec.Body.String())
	}
}

func TestHandler_ValidationErrorBody(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, f.principal(auth.RoleManager))

	body := `{"fullName":"Maria Oliveira","cpf":"111.111.111-11","dateOfBirth":"1990-03-15","phone":"(11) 98765-4321"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Error  string            `json:"error"`
		Issues map[string]string `json:"issues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Issues["cpf"] == "" {
		t.Errorf("expected cpf issue, got %s", rec.Body.String())
	}
}

func TestHandler_MalformedIDReadsAsNotFound(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, f.principal(auth.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_DeleteForbiddenForReceptionist(t *testing.T) {
	f := newFixture()
	admin := f.principal(auth.RoleAdmin)
	pat, err := f.svc.Create(context.Background(), admin, validInput(validCPF))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	e := newTestServer(f, f.principal(auth.RoleReceptionist))
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/patients/"+pat.ID.String(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
