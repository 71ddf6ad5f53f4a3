package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"labeleval/internal/domain"
	"labeleval/internal/evaluate"
)

// WriteConfusions writes confusion_<category>.csv for every category and
// returns the written paths in category order.
func WriteConfusions(dir string, rows []evaluate.Row, topK int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create confusion dir: %w", err)
	}
	var paths []string
	for _, c := range domain.Categories() {
		path := filepath.Join(dir, fmt.Sprintf("confusion_%s.csv", c))
		if err := writeConfusionFile(path, evaluate.Confusions(rows, c, topK)); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeConfusionFile(path string, pairs []domain.ConfusionPair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"gold", "pred", "count"})
	for _, p := range pairs {
		_ = w.Write([]string{p.Gold, p.Predicted, strconv.Itoa(p.Count)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
