package export

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/medlab/medlab/internal/platform/render"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWorkbook_HeaderIsFirstRow(t *testing.T) {
	data, err := Workbook(Sheet{
		Name:   "Patients",
		Header: []string{"Name", "Passport Number", "Age"},
		Rows: [][]any{
			{"Jane Doe", "X123", 34},
			{"John Roe", "Y456", 41},
		},
	})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Patients"}, f.GetSheetList())

	rows, err := f.GetRows("Patients")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Passport Number", "Age"}, rows[0])
	assert.Equal(t, []string{"Jane Doe", "X123", "34"}, rows[1])
}

func TestWorkbook_MultipleSheets(t *testing.T) {
	data, err := Workbook(
		Sheet{Name: "Summary", Header: []string{"Lab Number"}, Rows: [][]any{{"LAB-X123-001"}}},
		Sheet{Name: "Details", Header: DetailHeader},
	)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Summary", "Details"}, f.GetSheetList())

	rows, err := f.GetRows("Details")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, DetailHeader, rows[0])
}

func TestWorkbook_NoSheets(t *testing.T) {
	_, err := Workbook()
	assert.Error(t, err)
}

func TestDetailRows(t *testing.T) {
	sections := []render.Section{
		render.Render("Renal Function", map[string]any{
			"urea": map[string]any{"value": "5"},
		}),
		render.Render("Blood Test", nil),
	}

	rows := DetailRows("LAB-1", sections)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"LAB-1", "Renal Function", "Urea / Value", "5"}, rows[0])
	assert.Equal(t, []any{"LAB-1", "Blood Test", "", render.Placeholder}, rows[1])
}

func TestAttach(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients/export", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Attach(c, "patients.xlsx", []byte("xlsx")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="patients.xlsx"`, rec.Header().Get(echo.HeaderContentDisposition))
}
