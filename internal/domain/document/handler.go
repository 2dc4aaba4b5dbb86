package document

import (
	"fmt"
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
	api.GET("/patients/:id/documents", h.ListDocuments)
	api.POST("/patients/:id/documents", h.UploadDocument)
	api.GET("/patients/:id/documents/:docId", h.GetDocument)
	api.PATCH("/patients/:id/documents/:docId", h.UpdateDocument)
	api.DELETE("/patients/:id/documents/:docId", h.DeleteDocument)
	api.GET("/patients/:id/documents/:docId/download", h.DownloadDocument)
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

func docID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("docId"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("document")
	}
	return id, nil
}

func (h *Handler) ListDocuments(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	docs, total, err := h.svc.List(c.Request().Context(), p, pid, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(docs, pg, total))
}

func (h *Handler) GetDocument(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	did, err := docID(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.Get(c.Request().Context(), p, pid, did)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) UploadDocument(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("invalid document upload",
			map[string]string{"file": "file part is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return apperr.Internal(err)
	}
	defer src.Close()

	in := UploadInput{
		Category:    c.FormValue("category"),
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     src,
	}
	doc, err := h.svc.Upload(c.Request().Context(), p, pid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *Handler) UpdateDocument(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	did, err := docID(c)
	if err != nil {
		return err
	}
	var in MetaInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validationf("malformed request body")
	}
	doc, err := h.svc.UpdateMeta(c.Request().Context(), p, pid, did, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) DeleteDocument(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	did, err := docID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), p, pid, did); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DownloadDocument(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	did, err := docID(c)
	if err != nil {
		return err
	}
	doc, rc, err := h.svc.Download(c.Request().Context(), p, pid, did)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, doc.FileName))
	return c.Stream(http.StatusOK, doc.ContentType, rc)
}
