package clinical

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/export"
	"github.com/medlab/medlab/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/clinical", h.ListClinicalReports)
	api.POST("/clinical", h.CreateClinicalReport)
	api.GET("/clinical/:id", h.GetClinicalReport)
	api.PUT("/clinical/:id", h.UpdateClinicalReport)
	api.DELETE("/clinical/:id", h.DeleteClinicalReport)
	api.GET("/clinical/:id/report", h.RenderClinicalReport)
	api.GET("/clinical/:id/export", h.ExportClinicalReport)
}

func (h *Handler) CreateClinicalReport(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	rep, dropped, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	setDropped(c, dropped)
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) GetClinicalReport(c echo.Context) error {
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

func (h *Handler) ListClinicalReports(c echo.Context) error {
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

func (h *Handler) UpdateClinicalReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	rep, dropped, err := h.svc.Update(c.Request().Context(), id, &in)
	if err != nil {
		return err
	}
	setDropped(c, dropped)
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) DeleteClinicalReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RenderClinicalReport returns the rendered sections, or plain text with
// ?format=text.
func (h *Handler) RenderClinicalReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.Render(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if c.QueryParam("format") == "text" {
		return c.String(http.StatusOK, doc.Text())
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) ExportClinicalReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	data, err := h.svc.Export(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return export.Attach(c, "clinical-report-"+id.String()+".xlsx", data)
}

func setDropped(c echo.Context, dropped []string) {
	if len(dropped) > 0 {
		c.Response().Header().Set(panel.DroppedFieldsHeader, strings.Join(dropped, ","))
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id")
	}
	return id, nil
}
