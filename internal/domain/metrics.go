package domain

import "fmt"

type CategoryMetrics struct {
	Category   Category
	Comparable int
	Accuracy   float64
	MacroF1    float64
}

// MetricsRecord is the aggregate result of one evaluation.
type MetricsRecord struct {
	Rows          int
	Categories    []CategoryMetrics
	JointAccuracy float64
	TripleCorrect float64
}

type MetricValue struct {
	Name  string
	Value float64
}

// Category returns the metrics for c.
func (m MetricsRecord) Category(c Category) (CategoryMetrics, bool) {
	for _, cm := range m.Categories {
		if cm.Category == c {
			return cm, true
		}
	}
	return CategoryMetrics{}, false
}

// Table flattens the record into the metric name/value table of the report.
func (m MetricsRecord) Table() []MetricValue {
	out := make([]MetricValue, 0, len(m.Categories)*2+2)
	for _, cm := range m.Categories {
		out = append(out,
			MetricValue{Name: fmt.Sprintf("accuracy_%s", cm.Category), Value: cm.Accuracy},
			MetricValue{Name: fmt.Sprintf("macroF1_%s", cm.Category), Value: cm.MacroF1},
		)
	}
	out = append(out,
		MetricValue{Name: "triple_correct", Value: m.TripleCorrect},
		MetricValue{Name: "all_correct", Value: m.JointAccuracy},
	)
	return out
}

// ConfusionPair counts one (gold, predicted) mismatch.
type ConfusionPair struct {
	Gold      string
	Predicted string
	Count     int
}
