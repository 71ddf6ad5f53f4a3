package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"labeleval/internal/dataset"
	"labeleval/internal/domain"
	"labeleval/internal/evaluate"

	"github.com/xuri/excelize/v2"
)

const (
	sheetData    = "data"
	sheetMetrics = "metrics"
	timeLayout   = "2006-01-02 15:04:05"
)

// DataColumns is the header of the data sheet: the gold table columns
// followed by the prediction columns.
func DataColumns() []string {
	cols := dataset.Columns()
	for _, c := range domain.Categories() {
		cols = append(cols, c.PredColumn())
	}
	return append(cols, "prompt_used", "raw_model_output")
}

// WriteWorkbook writes the joined rows and the metric table to an .xlsx file.
func WriteWorkbook(path string, rows []evaluate.Row, metrics domain.MetricsRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetData); err != nil {
		return fmt.Errorf("rename data sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetMetrics); err != nil {
		return fmt.Errorf("create metrics sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSheetRow(f, sheetData, 1, toAny(DataColumns()), headerStyle); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeSheetRow(f, sheetData, i+2, dataRow(r), 0); err != nil {
			return err
		}
	}

	if err := writeSheetRow(f, sheetMetrics, 1, []any{"metric", "value"}, headerStyle); err != nil {
		return err
	}
	for i, m := range metrics.Table() {
		if err := writeSheetRow(f, sheetMetrics, i+2, []any{m.Name, m.Value}, 0); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create workbook dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, first, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	if style == 0 || len(values) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func dataRow(r evaluate.Row) []any {
	c := r.Conversation
	out := []any{c.ID, c.DialogText, formatTime(c.StartTime), formatTime(c.EndTime), ""}
	if c.DurationSeconds != nil {
		out[4] = *c.DurationSeconds
	}
	for _, cat := range domain.Categories() {
		g, _ := r.Gold(cat)
		out = append(out, g)
	}
	for _, cat := range domain.Categories() {
		p, _ := r.Pred(cat)
		out = append(out, p)
	}
	if r.Prediction != nil {
		return append(out, r.Prediction.PromptUsed, r.Prediction.RawOutput)
	}
	return append(out, "", "")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
