package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	common_models "litterbugs/internal/common/models"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{
	"id",
	"title",
	"severity",
	"litter_types",
	"notes_presets",
	"types",
	"notes_other",
	"latitude",
	"longitude",
	"photos",
	"created_at",
	"expires_at",
}

func (s *ReportServiceImpl) ExportToExcel(ctx context.Context, now time.Time) ([]byte, string, error) {
	if now.IsZero() {
		now = s.Now()
	}
	reports, err := s.ReportRepo.ListUnexpired(ctx, now)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reports"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, r := range reports {
		for colIdx, val := range exportRow(r) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 15)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("litter_reports_%s.xlsx", now.UTC().Format("20060102"))
	return buffer.Bytes(), filename, nil
}

func exportRow(r common_models.Report) []any {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	num := func(f *float64) any {
		if f == nil {
			return ""
		}
		return *f
	}
	severity := ""
	if r.Severity != nil {
		severity = string(*r.Severity)
	}

	return []any{
		r.ID,
		r.Title,
		severity,
		strings.Join(r.LitterTypes, ", "),
		strings.Join(r.NotesPresets, ", "),
		deref(r.Types),
		deref(r.NotesOther),
		num(r.Latitude),
		num(r.Longitude),
		len(r.PhotoPaths),
		r.CreatedAt.Format("2006-01-02 15:04:05"),
		r.ExpiresAt.Format("2006-01-02 15:04:05"),
	}
}
