package report

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reports/summary", h.GetSummary)
}

func parsePeriodParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) GetSummary(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthenticated("authentication required")
	}

	from, err := parsePeriodParam(c.QueryParam("from"))
	if err != nil {
		return apperr.Validationf("from must be RFC 3339 or YYYY-MM-DD")
	}
	to, err := parsePeriodParam(c.QueryParam("to"))
	if err != nil {
		return apperr.Validationf("to must be RFC 3339 or YYYY-MM-DD")
	}

	summary, err := h.svc.Summary(c.Request().Context(), p, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
