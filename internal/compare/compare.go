package compare

import (
	"github.com/Dicklesworthstone/sarcompare/internal/metrics"
	"github.com/Dicklesworthstone/sarcompare/internal/model"
	"github.com/Dicklesworthstone/sarcompare/internal/stats"
)

// Report is the comparison of every catalog metric across labels.
type Report struct {
	Labels   []string `json:"labels"`
	Datasets []string `json:"datasets"`
	Metrics  []Metric `json:"metrics"`
	// Skipped lists metrics not available for every label.
	Skipped []string `json:"skipped,omitempty"`
}

// Metric is one catalog metric summarized for every label.
type Metric struct {
	metrics.Metric
	Values []Value `json:"values"`
	// MeanDiff is the mean of the first label minus the mean of the second.
	MeanDiff float64 `json:"mean_diff"`
	// Leader is the label whose mean is better, empty when the metric has
	// no direction or the means tie.
	Leader string `json:"leader,omitempty"`
}

// Value is one label's summary of a metric.
type Value struct {
	Label          string               `json:"label"`
	Column         string               `json:"column"`
	Summary        stats.Summary        `json:"summary"`
	Recommendation stats.Recommendation `json:"recommendation"`
}

// Build summarizes every metric of catalog for labels. A metric is kept
// only when each label has at least one valid sample of it.
func Build(store *model.Store, catalog metrics.Catalog, labels []string) Report {
	r := Report{
		Labels:   labels,
		Datasets: store.Keys(),
		Metrics:  []Metric{},
	}

	for _, m := range catalog {
		row, ok := buildMetric(store, m, labels)
		if !ok {
			r.Skipped = append(r.Skipped, m.Name)
			continue
		}
		r.Metrics = append(r.Metrics, row)
	}
	return r
}

// Variation builds one single-label report per label, so a metric missing
// for one label does not hide it for the others.
func Variation(store *model.Store, catalog metrics.Catalog, labels []string) []Report {
	out := make([]Report, 0, len(labels))
	for _, label := range labels {
		out = append(out, Build(store, catalog, []string{label}))
	}
	return out
}

func buildMetric(store *model.Store, m metrics.Metric, labels []string) (Metric, bool) {
	row := Metric{Metric: m}
	if len(labels) == 0 {
		return row, false
	}

	for _, label := range labels {
		series, ok := metrics.Extract(store, label, m)
		if !ok {
			return row, false
		}
		sum, ok := stats.Summarize(series.Y)
		if !ok {
			return row, false
		}
		row.Values = append(row.Values, Value{
			Label:          label,
			Column:         series.Column,
			Summary:        sum,
			Recommendation: stats.Classify(sum.CV),
		})
	}

	if len(row.Values) >= 2 {
		a, b := row.Values[0], row.Values[1]
		row.MeanDiff = a.Summary.Mean - b.Summary.Mean
		row.Leader = leader(m.Better, a, b)
	}
	return row, true
}

func leader(better metrics.Better, a, b Value) string {
	if a.Summary.Mean == b.Summary.Mean {
		return ""
	}
	higher := a
	if b.Summary.Mean > a.Summary.Mean {
		higher = b
	}
	switch better {
	case metrics.BetterHigher:
		return higher.Label
	case metrics.BetterLower:
		if higher.Label == a.Label {
			return b.Label
		}
		return a.Label
	}
	return ""
}

// Find returns the row of a metric by name.
func (r Report) Find(name string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// Summaries returns the rows of metrics flagged for the summary.
func (r Report) Summaries() []Metric {
	var out []Metric
	for _, m := range r.Metrics {
		if m.Summary {
			out = append(out, m)
		}
	}
	return out
}
