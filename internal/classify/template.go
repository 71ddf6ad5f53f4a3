package classify

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"labeleval/internal/domain"
)

// Placeholder marks where the transcript goes in a prompt template.
const Placeholder = "<<DIALOG_BLOCK>>"

type Template struct {
	text string
}

// ParseTemplate requires exactly one Placeholder in text.
func ParseTemplate(text string) (*Template, error) {
	switch n := strings.Count(text, Placeholder); n {
	case 1:
		return &Template{text: text}, nil
	case 0:
		return nil, fmt.Errorf("%w: %s not found in template", domain.ErrPlaceholder, Placeholder)
	default:
		return nil, fmt.Errorf("%w: %s occurs %d times, want exactly one", domain.ErrPlaceholder, Placeholder, n)
	}
}

func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: prompt template %q", domain.ErrMissingFile, path)
		}
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	tmpl, err := ParseTemplate(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tmpl, nil
}

// Render substitutes the trimmed transcript for the placeholder.
func (t *Template) Render(dialog string) string {
	return strings.Replace(t.text, Placeholder, strings.TrimSpace(dialog), 1)
}
