// Package export writes record listings and rendered reports as .xlsx
// workbooks.
package export

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/medlab/medlab/internal/platform/render"
)

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	defaultSheet = "Sheet1"
	defaultWidth = 18
	maxWidth     = 60
)

// DetailHeader is the header row of a flattened report sheet.
var DetailHeader = []string{"Reference", "Section", "Field", "Value"}

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Workbook writes the sheets, in order, into one .xlsx file.
func Workbook(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook needs at least one sheet")
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		index, err := f.NewSheet(s.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", s.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return nil, err
		}
	}
	if sheets[0].Name != defaultSheet {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s Sheet, headerStyle int) error {
	widths := make([]int, len(s.Header))
	for col, header := range s.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(s.Name, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(s.Name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		widths[col] = len(header)
	}

	for r, row := range s.Rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(s.Name, cell, v); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			if col < len(widths) {
				if n := len(fmt.Sprint(v)); n > widths[col] {
					widths[col] = n
				}
			}
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		width := float64(w + 2)
		if width < defaultWidth {
			width = defaultWidth
		}
		if width > maxWidth {
			width = maxWidth
		}
		if err := f.SetColWidth(s.Name, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

// DetailRows flattens rendered sections into rows under DetailHeader. An
// empty section contributes one placeholder row so it stays visible.
func DetailRows(ref string, sections []render.Section) [][]any {
	var rows [][]any
	for _, s := range sections {
		if s.Empty {
			rows = append(rows, []any{ref, s.Title, "", s.Placeholder})
			continue
		}
		for _, f := range s.Flatten() {
			rows = append(rows, []any{ref, s.Title, f.Path, f.Value})
		}
	}
	return rows
}

// Attach sends a workbook as a file download.
func Attach(c echo.Context, filename string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, ContentType, data)
}
