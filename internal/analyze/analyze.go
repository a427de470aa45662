// Package analyze computes descriptive statistics over the top speeds of a
// dataset, overall and per diet. All functions are pure; no I/O.
package analyze

import (
	"math"
	"sort"

	"github.com/derickschaefer/fauna/internal/model"
)

// GroupAll labels the summary over every record.
const GroupAll = "All"

// ─── Summary ──────────────────────────────────────────────────────────────────

// Summary holds descriptive statistics for one group of records.
type Summary struct {
	Group   string  `json:"group" yaml:"group"`
	Count   int     `json:"count" yaml:"count"`
	Invalid int     `json:"invalid" yaml:"invalid"` // NaN, infinite or negative speeds
	Mean    float64 `json:"mean" yaml:"mean"`
	Std     float64 `json:"std" yaml:"std"`
	Min     float64 `json:"min" yaml:"min"`
	P25     float64 `json:"p25" yaml:"p25"`
	Median  float64 `json:"median" yaml:"median"`
	P75     float64 `json:"p75" yaml:"p75"`
	Max     float64 `json:"max" yaml:"max"`
	Skew    float64 `json:"skew" yaml:"skew"`
	Fastest string  `json:"fastest" yaml:"fastest"`
	Slowest string  `json:"slowest" yaml:"slowest"`
}

// Summarize computes statistics over the speeds of recs.
// Invalid speeds are excluded from all numeric computations but counted.
// Ties for fastest and slowest go to the earliest record.
func Summarize(group string, recs []model.Record) Summary {
	s := Summary{Group: group, Count: len(recs)}

	var vals []float64
	fastest, slowest := -1, -1
	for i, r := range recs {
		if model.IsInvalidSpeed(r.Speed) {
			s.Invalid++
			continue
		}
		vals = append(vals, r.Speed)
		if fastest < 0 || r.Speed > recs[fastest].Speed {
			fastest = i
		}
		if slowest < 0 || r.Speed < recs[slowest].Speed {
			slowest = i
		}
	}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Max = nan, nan, nan, nan
		s.P25, s.Median, s.P75, s.Skew = nan, nan, nan, nan
		return s
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = sumF(vals) / float64(len(vals))
	s.Std = stddevF(vals, s.Mean)
	s.Median = percentile(sorted, 50)
	s.P25 = percentile(sorted, 25)
	s.P75 = percentile(sorted, 75)
	s.Skew = skewness(vals, s.Mean, s.Std)
	s.Fastest = recs[fastest].Name
	s.Slowest = recs[slowest].Name
	return s
}

// ByDiet returns the overall summary followed by one summary per diet, in
// legend order. Diets with no records are omitted.
func ByDiet(recs []model.Record) []Summary {
	out := []Summary{Summarize(GroupAll, recs)}
	groups := make(map[model.Diet][]model.Record, len(model.Diets))
	for _, r := range recs {
		groups[r.Diet] = append(groups[r.Diet], r)
	}
	for _, d := range model.Diets {
		if g := groups[d]; len(g) > 0 {
			out = append(out, Summarize(string(d), g))
		}
	}
	return out
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

func sumF(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

// stddevF is the sample standard deviation; zero below two values.
func stddevF(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sq float64
	for _, v := range vals {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)-1))
}

// percentile interpolates linearly between closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	idx := p / 100 * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func skewness(vals []float64, mean, std float64) float64 {
	n := float64(len(vals))
	if n < 3 || std == 0 {
		return 0
	}
	var s float64
	for _, v := range vals {
		d := (v - mean) / std
		s += d * d * d
	}
	return s * n / ((n - 1) * (n - 2))
}
