package radiology

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medlab/medlab/internal/domain/panel"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestService(), 1024)
	e := echo.New()
	return h, e
}

func TestHandler_CreateRadiologyReport(t *testing.T) {
	h, e := newTestHandler()

	body := strings.Replace(validBody, `"area1"`, `"eyeChart":{},"area1"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/radiology", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateRadiologyReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if got := rec.Header().Get(panel.DroppedFieldsHeader); got != "eyeChart" {
		t.Errorf("dropped header = %q", got)
	}
}

func TestHandler_CreateRadiologyReport_Missing(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/radiology", strings.NewReader(`{"patientName":"Jane"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := h.CreateRadiologyReport(c); err == nil {
		t.Error("expected validation error")
	}
}

func TestHandler_GetRadiologyReport_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetRadiologyReport(c); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestHandler_ListRadiologyReports(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Create(nil, mustParse(t, validBody))

	req := httptest.NewRequest(http.MethodGet, "/radiology", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListRadiologyReports(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
