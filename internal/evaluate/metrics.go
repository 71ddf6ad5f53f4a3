package evaluate

import (
	"sort"

	"labeleval/internal/domain"
)

var tripleCategories = []domain.Category{
	domain.CategorySentiment,
	domain.CategoryIntent,
	domain.CategoryResponseStatus,
}

// ComputeMetrics joins and scores in one step.
func ComputeMetrics(gold []domain.Conversation, preds []domain.Prediction) domain.MetricsRecord {
	return Compute(Join(gold, preds))
}

// Compute scores joined rows. Per-category metrics only use rows where both
// labels are present; a category with no such rows scores 0.
func Compute(rows []Row) domain.MetricsRecord {
	rec := domain.MetricsRecord{Rows: len(rows)}
	for _, c := range domain.Categories() {
		golds, preds := comparablePairs(rows, c)
		rec.Categories = append(rec.Categories, domain.CategoryMetrics{
			Category:   c,
			Comparable: len(golds),
			Accuracy:   accuracy(golds, preds),
			MacroF1:    macroF1(golds, preds),
		})
	}
	rec.JointAccuracy = jointAccuracy(rows, domain.Categories())
	rec.TripleCorrect = jointAccuracy(rows, tripleCategories)
	return rec
}

func comparablePairs(rows []Row, c domain.Category) ([]string, []string) {
	var golds, preds []string
	for _, r := range rows {
		g, gok := r.Gold(c)
		p, pok := r.Pred(c)
		if gok && pok {
			golds = append(golds, g)
			preds = append(preds, p)
		}
	}
	return golds, preds
}

func accuracy(golds, preds []string) float64 {
	if len(golds) == 0 {
		return 0
	}
	hits := 0
	for i := range golds {
		if golds[i] == preds[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(golds))
}

// macroF1 averages per-class F1 over the sorted union of observed classes.
func macroF1(golds, preds []string) float64 {
	if len(golds) == 0 {
		return 0
	}
	seen := make(map[string]struct{})
	for i := range golds {
		seen[golds[i]] = struct{}{}
		seen[preds[i]] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	var sum float64
	for _, class := range classes {
		var tp, fp, fn int
		for i := range golds {
			g, p := golds[i] == class, preds[i] == class
			switch {
			case g && p:
				tp++
			case p:
				fp++
			case g:
				fn++
			}
		}
		sum += f1(tp, fp, fn)
	}
	return sum / float64(len(classes))
}

func f1(tp, fp, fn int) float64 {
	var precision, recall float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// jointAccuracy is the share of rows where every category matches. Both
// labels absent counts as a match; only one present is a mismatch.
func jointAccuracy(rows []Row, cats []domain.Category) float64 {
	if len(rows) == 0 {
		return 0
	}
	hits := 0
	for _, r := range rows {
		if rowMatches(r, cats) {
			hits++
		}
	}
	return float64(hits) / float64(len(rows))
}

func rowMatches(r Row, cats []domain.Category) bool {
	for _, c := range cats {
		g, gok := r.Gold(c)
		p, pok := r.Pred(c)
		if gok != pok || g != p {
			return false
		}
	}
	return true
}
