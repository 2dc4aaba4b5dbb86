package clinic

import (
	"net/http"

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
	api.GET("/clinic", h.GetClinic)
	api.PATCH("/clinic", h.UpdateClinic)
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return auth.Principal{}, apperr.Unauthenticated("authentication required")
	}
	return p, nil
}

func (h *Handler) GetClinic(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	clinic, err := h.svc.Get(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clinic)
}

func (h *Handler) UpdateClinic(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var in SettingsInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validationf("malformed request body")
	}
	clinic, err := h.svc.UpdateSettings(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clinic)
}
