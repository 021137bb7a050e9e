package metrics

import (
	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

// Series is one metric of one label: the row index of every valid sample
// and its scaled value.
type Series struct {
	Label  string
	Metric Metric
	Column string
	X      []float64
	Y      []float64
}

func (s Series) Len() int { return len(s.Y) }

// XY implements plotter.XYer.
func (s Series) XY(i int) (float64, float64) { return s.X[i], s.Y[i] }

// Value implements plotter.Valuer.
func (s Series) Value(i int) float64 { return s.Y[i] }

// Resolve finds the column of label's dataset that carries m.
func Resolve(store *model.Store, label string, m Metric) (string, bool) {
	return store.FindColumn(model.Key(label, m.Section), m.Candidates...)
}

// Extract returns m for label with missing samples dropped. It returns
// false when the dataset or the column is absent.
func Extract(store *model.Store, label string, m Metric) (Series, bool) {
	col, ok := Resolve(store, label, m)
	if !ok {
		return Series{}, false
	}
	ds, ok := store.Dataset(label, m.Section)
	if !ok {
		return Series{}, false
	}
	values, ok := ds.Column(col)
	if !ok {
		return Series{}, false
	}

	s := Series{
		Label:  label,
		Metric: m,
		Column: col,
		X:      make([]float64, 0, len(values)),
		Y:      make([]float64, 0, len(values)),
	}
	for i, v := range values {
		if model.IsMissing(v) {
			continue
		}
		s.X = append(s.X, float64(i))
		s.Y = append(s.Y, m.Apply(v))
	}
	return s, true
}
