package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
)

// Claims is the JWT payload issued for staff sessions.
type Claims struct {
	jwt.RegisteredClaims
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	ClinicID string `json:"clinic_id"`
}

// JWTConfig configures the JWT middleware.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
}

// JWTMiddleware validates the Authorization bearer token (HS256) and stores
// the resolved Principal in the request context. Requests without a valid
// token are rejected with 401.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return apperr.Unauthenticated("missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, opts...)
			if err != nil || !token.Valid {
				return apperr.Unauthenticated("invalid or expired token")
			}

			p, err := principalFromClaims(claims)
			if err != nil {
				return apperr.Unauthenticated("malformed token claims")
			}

			ctx := WithPrincipal(c.Request().Context(), p)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("user_id", p.UserID.String())
			return next(c)
		}
	}
}

func principalFromClaims(claims *Claims) (Principal, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, err
	}
	clinicID, err := uuid.Parse(claims.ClinicID)
	if err != nil {
		return Principal{}, err
	}
	role := Role(claims.Role)
	if !ValidRole(role) {
		return Principal{}, apperr.Unauthenticated("unknown role")
	}
	return Principal{
		UserID:   userID,
		Name:     claims.Name,
		Email:    claims.Email,
		Role:     role,
		ClinicID: clinicID,
	}, nil
}

// DevAuthMiddleware injects a fixed ADMIN principal. Local development only;
// config.Validate refuses to start production with this enabled.
func DevAuthMiddleware() echo.MiddlewareFunc {
	devUser := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	devClinic := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := Principal{
				UserID:   devUser,
				Name:     "Dev Admin",
				Email:    "dev@localhost",
				Role:     RoleAdmin,
				ClinicID: devClinic,
			}
			ctx := WithPrincipal(c.Request().Context(), p)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("user_id", p.UserID.String())
			return next(c)
		}
	}
}

// NewToken signs a session token for the given principal.
func NewToken(cfg JWTConfig, p Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = p.UserID.String()
	if cfg.Issuer != "" {
		claims.Issuer = cfg.Issuer
	}
	full := Claims{
		RegisteredClaims: claims,
		Name:             p.Name,
		Email:            p.Email,
		Role:             string(p.Role),
		ClinicID:         p.ClinicID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, full).SignedString(cfg.SigningKey)
}
