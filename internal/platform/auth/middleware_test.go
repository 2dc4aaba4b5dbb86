package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
)

var testKey = []byte("test-signing-key")

func signedToken(t *testing.T, p Principal, expiry time.Time) string {
	t.Helper()
	tok, err := NewToken(JWTConfig{SigningKey: testKey}, p, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func testPrincipal() Principal {
	return Principal{
		UserID:   uuid.New(),
		Name:     "Ana Souza",
		Email:    "ana@clinic.example",
		Role:     RolePhysiotherapist,
		ClinicID: uuid.New(),
	}
}

func runMiddleware(token string) (Principal, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Principal
	h := JWTMiddleware(JWTConfig{SigningKey: testKey})(func(c echo.Context) error {
		got, _ = PrincipalFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	return got, h(c)
}

func TestJWTMiddlewareResolvesPrincipal(t *testing.T) {
	want := testPrincipal()
	got, err := runMiddleware(signedToken(t, want, time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != want.UserID || got.ClinicID != want.ClinicID || got.Role != want.Role {
		t.Errorf("principal mismatch: got %+v want %+v", got, want)
	}
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	_, err := runMiddleware("")
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestJWTMiddlewareRejectsExpiredToken(t *testing.T) {
	_, err := runMiddleware(signedToken(t, testPrincipal(), time.Now().Add(-time.Minute)))
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestJWTMiddlewareRejectsUnknownRole(t *testing.T) {
	p := testPrincipal()
	p.Role = Role("SUPERUSER")
	_, err := runMiddleware(signedToken(t, p, time.Now().Add(time.Hour)))
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestDevAuthMiddlewareInjectsAdmin(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var got Principal
	h := DevAuthMiddleware()(func(c echo.Context) error {
		got, _ = PrincipalFromContext(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != RoleAdmin {
		t.Errorf("expected ADMIN principal, got %s", got.Role)
	}
}
