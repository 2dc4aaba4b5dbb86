package viacep

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
)

// Handler exposes the lookup for address autofill.
type Handler struct {
	cep Lookuper
}

func NewHandler(cep Lookuper) *Handler {
	return &Handler{cep: cep}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/cep/:code", h.LookupCEP)
}

func (h *Handler) LookupCEP(c echo.Context) error {
	addr, err := h.cep.Lookup(c.Request().Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCEP):
			return apperr.Validationf("invalid CEP")
		case errors.Is(err, ErrNotFound):
			return apperr.NotFound("address")
		case errors.Is(err, ErrUnavailable):
			return apperr.Transient("postal code service unavailable", err)
		default:
			return apperr.Internal(err)
		}
	}
	return c.JSON(http.StatusOK, addr)
}
