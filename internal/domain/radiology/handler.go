package radiology

import (
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/upload"
	"github.com/medlab/medlab/pkg/pagination"
)

type Handler struct {
	svc            *Service
	uploadMaxBytes int64
}

func NewHandler(svc *Service, uploadMaxBytes int64) *Handler {
	return &Handler{svc: svc, uploadMaxBytes: uploadMaxBytes}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/radiology", h.ListRadiologyReports)
	api.POST("/radiology", h.CreateRadiologyReport)
	api.GET("/radiology/:id", h.GetRadiologyReport)
	api.PUT("/radiology/:id", h.UpdateRadiologyReport)
	api.DELETE("/radiology/:id", h.DeleteRadiologyReport)
}

func (h *Handler) CreateRadiologyReport(c echo.Context) error {
	in, err := h.bindInput(c)
	if err != nil {
		return err
	}
	rep, dropped, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	if len(dropped) > 0 {
		c.Response().Header().Set(panel.DroppedFieldsHeader, strings.Join(dropped, ","))
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) GetRadiologyReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rep, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) ListRadiologyReports(c echo.Context) error {
	pg := pagination.FromContext(c)
	f, err := pagination.FilterFromContext(c)
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}
	reports, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reports, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateRadiologyReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	in, err := h.bindInput(c)
	if err != nil {
		return err
	}
	rep, dropped, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	if len(dropped) > 0 {
		c.Response().Header().Set(panel.DroppedFieldsHeader, strings.Join(dropped, ","))
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) DeleteRadiologyReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// bindInput reads a JSON body, or a multipart form with the JSON in "data"
// and an optional "patientImage" file.
func (h *Handler) bindInput(c echo.Context) (*Input, error) {
	var body []byte
	if upload.IsMultipart(c) {
		body = []byte(c.FormValue("data"))
	} else {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return nil, apperr.Validation("invalid request body")
		}
		body = b
	}
	in, err := ParseInput(body)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if upload.IsMultipart(c) {
		img, ok, err := upload.Image(c, "patientImage", h.uploadMaxBytes)
		if err != nil {
			return nil, err
		}
		if ok {
			in.PatientImage = img
		}
	}
	return in, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id")
	}
	return id, nil
}
