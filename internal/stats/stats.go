package stats

import (
	"encoding/json"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

const (
	// LowVariation is the CV at or below which the mean is representative.
	LowVariation = 0.30
	// HighVariation is the CV above which the median is preferred.
	HighVariation = 1.00
)

// Summary describes one series after missing values are dropped.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	CV     float64 `json:"cv"`
}

// Summarize computes the summary of values. It returns false when no
// value survives the missing filter.
func Summarize(values []float64) (Summary, bool) {
	data := stats.Float64Data(model.Valid(values))
	if len(data) == 0 {
		return Summary{}, false
	}

	s := Summary{N: len(data)}
	// errors only occur on empty input, ruled out above
	s.Mean, _ = stats.Mean(data)
	s.Median, _ = stats.Median(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)

	if s.N > 1 {
		s.Std, _ = stats.StandardDeviationSample(data)
	} else {
		s.Std = math.NaN()
	}
	s.CV = CV(s.Std, s.Mean)

	return s, true
}

// MarshalJSON writes undefined values (NaN) as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		N      int      `json:"n"`
		Mean   *float64 `json:"mean"`
		Median *float64 `json:"median"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
		CV     *float64 `json:"cv"`
	}{
		N:      s.N,
		Mean:   finite(s.Mean),
		Median: finite(s.Median),
		Std:    finite(s.Std),
		Min:    finite(s.Min),
		Max:    finite(s.Max),
		CV:     finite(s.CV),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// CV is std/mean, NaN when the mean is zero.
func CV(std, mean float64) float64 {
	if mean == 0 {
		return math.NaN()
	}
	return std / mean
}

// Recommendation tells which central value represents a series.
type Recommendation int

const (
	Either Recommendation = iota
	UseMean
	UseMedian
)

func (r Recommendation) String() string {
	switch r {
	case UseMean:
		return "mean"
	case UseMedian:
		return "median"
	default:
		return "either"
	}
}

// Describe is the human readable form of the recommendation.
func (r Recommendation) Describe() string {
	switch r {
	case UseMean:
		return "low variation, use the mean"
	case UseMedian:
		return "high variation, use the median"
	default:
		return "moderate variation, mean and median are both acceptable"
	}
}

func (r Recommendation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Classify maps a coefficient of variation to a recommendation.
// An undefined CV gives Either.
func Classify(cv float64) Recommendation {
	switch {
	case math.IsNaN(cv):
		return Either
	case cv <= LowVariation:
		return UseMean
	case cv > HighVariation:
		return UseMedian
	default:
		return Either
	}
}
