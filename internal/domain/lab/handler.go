package lab

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/export"
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
	api.GET("/lab", h.ListLabReports)
	api.POST("/lab", h.CreateLabReport)
	api.GET("/lab/export", h.ExportLabReports)
	api.GET("/lab/patient/:patientId", h.ListPatientLabReports)
	api.GET("/lab/:id", h.GetLabReport)
	api.PUT("/lab/:id", h.UpdateLabReport)
	api.DELETE("/lab/:id", h.DeleteLabReport)
	api.GET("/lab/:id/report", h.RenderLabReport)
}

func (h *Handler) CreateLabReport(c echo.Context) error {
	in, err := h.bindInput(c)
	if err != nil {
		return err
	}
	rep, dropped, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	setDropped(c, dropped)
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) GetLabReport(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	rep, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) ListLabReports(c echo.Context) error {
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

func (h *Handler) ListPatientLabReports(c echo.Context) error {
	patientID, err := parseID(c, "patientId")
	if err != nil {
		return err
	}
	reports, err := h.svc.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []*Report{}
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *Handler) UpdateLabReport(c echo.Context) error {
	id, err := parseID(c, "id")
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
	setDropped(c, dropped)
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) DeleteLabReport(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RenderLabReport returns the report laid out as sections, or as plain text
// with ?format=text.
func (h *Handler) RenderLabReport(c echo.Context) error {
	id, err := parseID(c, "id")
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

func (h *Handler) ExportLabReports(c echo.Context) error {
	f, err := pagination.FilterFromContext(c)
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}
	data, err := h.svc.Export(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return export.Attach(c, "lab-reports.xlsx", data)
}

// bindInput reads a JSON body, or a multipart form carrying the JSON in the
// "data" field and an optional "patientImage" file.
func (h *Handler) bindInput(c echo.Context) (*Input, error) {
	var body []byte
	if upload.IsMultipart(c) {
		body = []byte(c.FormValue("data"))
		if len(strings.TrimSpace(string(body))) == 0 {
			form := map[string]string{}
			for _, k := range []string{"patientId", "patientName", "labNumber", "timeStamp"} {
				if v := c.FormValue(k); v != "" {
					form[k] = v
				}
			}
			body, _ = json.Marshal(form)
		}
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

func setDropped(c echo.Context, dropped []string) {
	if len(dropped) > 0 {
		c.Response().Header().Set(panel.DroppedFieldsHeader, strings.Join(dropped, ","))
	}
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}
