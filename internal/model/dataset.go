package model

import (
	"math"
	"strings"
)

// Dataset is one parsed section of one report: named columns over an
// implicit row index. Time-of-day columns keep their text, every other
// column is numeric with NaN marking a missing cell.
type Dataset struct {
	Label   string
	Section Section
	Columns []string

	text   map[string][]string
	values map[string][]float64
	rows   int
}

var textColumns = map[string]bool{
	"timestamp": true,
	"hr":        true,
	"time":      true,
	"hora":      true,
}

// IsTextColumn reports whether a column holds the time of day rather than
// numbers.
func IsTextColumn(name string) bool {
	return textColumns[strings.ToLower(strings.TrimSpace(name))]
}

// NewDataset returns an empty dataset with the given column order.
// Repeated names collapse onto their first position.
func NewDataset(label string, section Section, columns []string) *Dataset {
	return NewDatasetFunc(label, section, columns, IsTextColumn)
}

// NewDatasetFunc is NewDataset with isText deciding which columns keep
// their text.
func NewDatasetFunc(label string, section Section, columns []string, isText func(string) bool) *Dataset {
	d := &Dataset{
		Label:   label,
		Section: section,
		text:    make(map[string][]string),
		values:  make(map[string][]float64),
	}
	for _, c := range columns {
		if _, ok := d.text[c]; ok {
			continue
		}
		if _, ok := d.values[c]; ok {
			continue
		}
		d.Columns = append(d.Columns, c)
		if isText(c) {
			d.text[c] = nil
		} else {
			d.values[c] = nil
		}
	}
	return d
}

// Key is the store key of the dataset.
func (d *Dataset) Key() string { return Key(d.Label, d.Section) }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// AppendRow adds one row. Cells are keyed by column name; columns absent
// from cells get a missing value.
func (d *Dataset) AppendRow(text map[string]string, values map[string]float64) {
	for _, c := range d.Columns {
		if _, ok := d.text[c]; ok {
			d.text[c] = append(d.text[c], text[c])
			continue
		}
		v, ok := values[c]
		if !ok {
			v = Missing()
		}
		d.values[c] = append(d.values[c], v)
	}
	d.rows++
}

// Column returns the numeric values of a column.
func (d *Dataset) Column(name string) ([]float64, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Text returns the raw cells of a text column.
func (d *Dataset) Text(name string) ([]string, bool) {
	v, ok := d.text[name]
	return v, ok
}

// Timestamps returns the first time-of-day column, if any.
func (d *Dataset) Timestamps() []string {
	for _, c := range d.Columns {
		switch strings.ToLower(c) {
		case "timestamp", "time", "hr", "hora":
			return d.text[c]
		}
	}
	return nil
}

// NumericColumns lists the numeric columns in header order.
func (d *Dataset) NumericColumns() []string {
	var cols []string
	for _, c := range d.Columns {
		if _, ok := d.values[c]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// Missing is the value stored for an absent or unparseable cell.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v marks a missing cell.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Valid drops missing values, keeping order.
func Valid(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}
