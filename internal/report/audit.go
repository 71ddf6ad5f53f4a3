package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"labeleval/internal/classify"

	jsoniter "github.com/json-iterator/go"
)

var auditJSON = jsoniter.Config{EscapeHTML: false}.Froze()

// WriteAudit writes one JSON line per classification attempt.
func WriteAudit(path string, events []classify.AttemptEvent) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audit file: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := auditJSON.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			f.Close()
			return fmt.Errorf("encode audit event: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush audit file: %w", err)
	}
	return f.Close()
}
