package patient

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients/export", h.ExportPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	p, err := h.bindPatient(c)
	if err != nil {
		return err
	}
	if err := h.svc.Create(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	f, err := pagination.FilterFromContext(c)
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}
	patients, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.bindPatient(c)
	if err != nil {
		return err
	}
	p.ID = id
	if err := h.svc.Update(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ExportPatients(c echo.Context) error {
	f, err := pagination.FilterFromContext(c)
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}
	data, err := h.svc.Export(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return export.Attach(c, "patients.xlsx", data)
}

// bindPatient reads a JSON body, or a multipart form with an optional
// "photo" file.
func (h *Handler) bindPatient(c echo.Context) (*Patient, error) {
	if !upload.IsMultipart(c) {
		var p Patient
		if err := c.Bind(&p); err != nil {
			return nil, apperr.Validation("invalid request body")
		}
		return &p, nil
	}

	p := &Patient{
		Name:           c.FormValue("name"),
		PassportNumber: c.FormValue("passportNumber"),
		IssuingCountry: c.FormValue("issuingCountry"),
		Occupation:     c.FormValue("occupation"),
		Sex:            c.FormValue("sex"),
		MedicalType:    c.FormValue("medicalType"),
	}
	if age := strings.TrimSpace(c.FormValue("age")); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil {
			return nil, apperr.Validation("age must be a whole number")
		}
		p.Age = n
	}
	photo, ok, err := upload.Image(c, "photo", h.uploadMaxBytes)
	if err != nil {
		return nil, err
	}
	if ok {
		p.Photo = photo
	}
	return p, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id")
	}
	return id, nil
}
