package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"labeleval/internal/domain"
)

const (
	columnConversationID = "conversation_id"
	columnPromptUsed     = "prompt_used"
	columnRawOutput      = "raw_model_output"
)

// PredictionColumns is the predictions table header, in file order.
func PredictionColumns() []string {
	cols := []string{columnConversationID}
	for _, c := range domain.Categories() {
		cols = append(cols, c.PredColumn())
	}
	return append(cols, columnPromptUsed, columnRawOutput)
}

// WritePredictions replaces path with the given rows. The file is written to
// a temporary sibling and renamed, so readers never see a partial table.
func WritePredictions(path string, preds []domain.Prediction) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create predictions dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".predictions-*.csv")
	if err != nil {
		return fmt.Errorf("create predictions temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(PredictionColumns()); err != nil {
		tmp.Close()
		return fmt.Errorf("write predictions header: %w", err)
	}
	for _, p := range preds {
		row := []string{p.ConversationID}
		for _, c := range domain.Categories() {
			row = append(row, p.Labels.Value(c))
		}
		row = append(row, p.PromptUsed, p.RawOutput)
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write prediction %s: %w", p.ConversationID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush predictions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close predictions temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace predictions file: %w", err)
	}
	return nil
}

// ReadPredictions loads a predictions table. conversation_id and the five
// pred_ columns are required; prompt_used and raw_model_output are optional.
func ReadPredictions(path string) ([]domain.Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: predictions table %q", domain.ErrMissingFile, path)
		}
		return nil, fmt.Errorf("open predictions: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: predictions table %q is empty", domain.ErrMissingColumn, path)
		}
		return nil, fmt.Errorf("read predictions header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[normalizeHeader(name)] = i
	}

	required := []string{columnConversationID}
	for _, c := range domain.Categories() {
		required = append(required, c.PredColumn())
	}
	var missing []string
	for _, col := range required {
		if _, ok := pos[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i, ok := pos[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []domain.Prediction
	seen := make(map[string]struct{})
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read predictions row: %w", err)
		}
		id := strings.TrimSpace(cell(row, columnConversationID))
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s in predictions table", domain.ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
		out = append(out, domain.Prediction{
			ConversationID: id,
			Labels: domain.LabelAssignment{
				ResponseStatus: domain.ResponseStatus(strings.TrimSpace(cell(row, domain.CategoryResponseStatus.PredColumn()))),
				Sentiment:      domain.Sentiment(strings.TrimSpace(cell(row, domain.CategorySentiment.PredColumn()))),
				CategoryType:   domain.CategoryTypeValue(strings.TrimSpace(cell(row, domain.CategoryType.PredColumn()))),
				Intent:         strings.TrimSpace(cell(row, domain.CategoryIntent.PredColumn())),
				IntentDetail:   strings.TrimSpace(cell(row, domain.CategoryIntentDetail.PredColumn())),
			},
			PromptUsed: cell(row, columnPromptUsed),
			RawOutput:  cell(row, columnRawOutput),
		})
	}
	return out, nil
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}
