package httpapi

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
	"github.com/MitaksharaYadav/NetraAI/internal/i18n"

	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportExportSheet worksheet name of the export workbook.
const reportExportSheet = "Reports"

// reportExportColumns message keys of the export header, in column order.
var reportExportColumns = []string{
	"scanId",
	"patient",
	"date",
	"condition",
	"severity",
	"confidence",
	"detectedRegions",
	"aiDiagnosis",
}

var reportExportWidths = []float64{16, 18, 12, 26, 22, 12, 34, 50}

// GenerateReportExport one localized row per record; header only when empty.
func GenerateReportExport(records []domain.ScanRecord, l i18n.Localizer) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	index, err := f.NewSheet(reportExportSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FDE6D2"},
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
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, key := range reportExportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(reportExportSheet, cell, l.T(key)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(reportExportSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(reportExportSheet, name, name, reportExportWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.ID,
			rec.Patient,
			rec.Date,
			rec.Condition,
			badgeText(l, rec.Severity),
			domain.FormatConfidence(rec.Confidence),
			strings.Join(rec.Regions, ", "),
			rec.Description,
		}
		for col, v := range values {
			if err := setCellValue(f, reportExportSheet, col+1, row, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	if err := f.SetPanes(reportExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// badgeText e.g. "Severe (Proliferative) 4/4".
func badgeText(l i18n.Localizer, severity int) string {
	b := domain.ReportBadge(severity)
	s := l.T(b.LabelKey)
	if b.DetailKey != "" {
		s += " (" + l.T(b.DetailKey) + ")"
	}
	return fmt.Sprintf("%s %d/4", s, severity)
}

func setCellValue(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
