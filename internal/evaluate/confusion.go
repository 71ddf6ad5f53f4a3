package evaluate

import (
	"sort"

	"labeleval/internal/domain"
)

// Confusions counts mismatching (gold, predicted) pairs for one category,
// most frequent first. topK <= 0 keeps every pair.
func Confusions(rows []Row, c domain.Category, topK int) []domain.ConfusionPair {
	type key struct{ gold, pred string }
	counts := make(map[key]int)
	for _, r := range rows {
		g, gok := r.Gold(c)
		p, pok := r.Pred(c)
		if !gok || !pok || g == p {
			continue
		}
		counts[key{g, p}]++
	}

	out := make([]domain.ConfusionPair, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.ConfusionPair{Gold: k.gold, Predicted: k.pred, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Gold != out[j].Gold {
			return out[i].Gold < out[j].Gold
		}
		return out[i].Predicted < out[j].Predicted
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
