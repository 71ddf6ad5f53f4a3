package report

import (
	"fmt"
	"strings"

	"labeleval/internal/domain"
)

// FormatSummary renders the metric table as plain text for the terminal
// and the run notification.
func FormatSummary(m domain.MetricsRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluated conversations: %d\n", m.Rows)
	fmt.Fprintf(&b, "%-16s %10s %10s %6s\n", "category", "accuracy", "macroF1", "n")
	for _, cm := range m.Categories {
		fmt.Fprintf(&b, "%-16s %9.2f%% %9.2f%% %6d\n", cm.Category, cm.Accuracy*100, cm.MacroF1*100, cm.Comparable)
	}
	fmt.Fprintf(&b, "triple_correct: %.2f%%\n", m.TripleCorrect*100)
	fmt.Fprintf(&b, "all_correct: %.2f%%\n", m.JointAccuracy*100)
	return b.String()
}
