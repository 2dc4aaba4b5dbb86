package consultation

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/physiocapture/physiocapture/internal/platform/apperr"
	"github.com/physiocapture/physiocapture/internal/platform/auth"
	"github.com/physiocapture/physiocapture/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/consultations", h.ListConsultations)
	api.POST("/patients/:id/consultations", h.CreateConsultation)
	api.GET("/patients/:id/consultations/:consultationId", h.GetConsultation)
	api.PATCH("/patients/:id/consultations/:consultationId", h.UpdateConsultation)
	api.DELETE("/patients/:id/consultations/:consultationId", h.DeleteConsultation)
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return auth.Principal{}, apperr.Unauthenticated("authentication required")
	}
	return p, nil
}

func patientID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("patient")
	}
	return id, nil
}

func consultationID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("consultationId"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("consultation")
	}
	return id, nil
}

func (h *Handler) ListConsultations(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	consultations, total, err := h.svc.ListByPatient(c.Request().Context(), p, pid, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(consultations, pg, total))
}

func (h *Handler) GetConsultation(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	cid, err := consultationID(c)
	if err != nil {
		return err
	}
	cons, err := h.svc.Get(c.Request().Context(), p, pid, cid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) CreateConsultation(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperr.Validationf("malformed request body")
	}
	cons, err := h.svc.Create(c.Request().Context(), p, pid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cons)
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	cid, err := consultationID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperr.Validationf("malformed request body")
	}
	cons, err := h.svc.Update(c.Request().Context(), p, pid, cid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) DeleteConsultation(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	cid, err := consultationID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), p, pid, cid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
