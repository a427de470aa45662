// Package chart renders terminal previews of a species dataset:
//
//   - Bar: horizontal bar per record, scaled from zero to the niced maximum
//     speed, tagged with a one-letter diet marker
//   - Diets: one bar per diet showing the record count and mean speed
//
// Both renderers skip NaN speeds rather than drawing them as zero.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/scale"
)

// ─── Bar ─────────────────────────────────────────────────────────────────────

// BarOptions controls horizontal bar chart rendering.
type BarOptions struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// MaxBars caps the number of bars; the first MaxBars records are kept.
	// If 0, no limit is applied.
	MaxBars int
}

// Bar renders a horizontal bar chart of recs to w, one bar per record, in
// record order.
//
// Output example:
//
//	Top Speed of Animals by Diet  (0 – 120 km/h)
//	Cheetah     C  120  ████████████████████████████
//	Elephant    H   40  █████████
//	Brown Bear  O   56  █████████████
func Bar(w io.Writer, title string, recs []model.Record, opts BarOptions) error {
	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}

	var valid []model.Record
	for _, r := range recs {
		if !math.IsNaN(r.Speed) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return fmt.Errorf("chart bar: no records to render")
	}
	if opts.MaxBars > 0 && len(valid) > opts.MaxBars {
		valid = valid[:opts.MaxBars]
	}

	maxVal := 0.0
	nameWidth, valWidth := 0, 0
	for _, r := range valid {
		maxVal = math.Max(maxVal, r.Speed)
		if l := len([]rune(r.Name)); l > nameWidth {
			nameWidth = l
		}
		if l := len(formatFloat(r.Speed)); l > valWidth {
			valWidth = l
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	domain := scale.NewLinear(0, maxVal, 0, 1).Nice(10)

	// name, marker, value and three two-space separators
	barAreaWidth := totalWidth - nameWidth - 1 - valWidth - 6
	if barAreaWidth < 4 {
		barAreaWidth = 4
	}
	x := scale.NewLinear(domain.D0, domain.D1, 0, float64(barAreaWidth))

	fmt.Fprintf(w, "%s  (0 – %s km/h)\n", title, formatFloat(domain.D1))
	for _, r := range valid {
		barLen := int(math.Round(x.Scale(r.Speed)))
		if barLen < 1 && r.Speed > 0 {
			barLen = 1 // every non-zero speed stays visible
		}
		if barLen > barAreaWidth {
			barLen = barAreaWidth
		}
		fmt.Fprintf(w, "%s  %s  %*s  %s\n",
			padRight(r.Name, nameWidth),
			marker(r.Diet),
			valWidth, formatFloat(r.Speed),
			strings.Repeat("█", barLen),
		)
	}
	fmt.Fprintf(w, "\n%s\n", legend())
	return nil
}

// ─── Diets ───────────────────────────────────────────────────────────────────

// DietStat summarises the records of one diet.
type DietStat struct {
	Diet      model.Diet
	Count     int
	MeanSpeed float64
}

// DietStats returns one entry per known diet, in legend order, followed by an
// entry for unknown diets when any are present.
func DietStats(recs []model.Record) []DietStat {
	sums := map[model.Diet]float64{}
	counts := map[model.Diet]int{}
	var unknown DietStat
	unknown.Diet = "Other"
	for _, r := range recs {
		if math.IsNaN(r.Speed) {
			continue
		}
		if !r.Diet.Valid() {
			unknown.Count++
			unknown.MeanSpeed += r.Speed
			continue
		}
		sums[r.Diet] += r.Speed
		counts[r.Diet]++
	}

	out := make([]DietStat, 0, len(model.Diets)+1)
	for _, d := range model.Diets {
		st := DietStat{Diet: d, Count: counts[d]}
		if st.Count > 0 {
			st.MeanSpeed = sums[d] / float64(st.Count)
		}
		out = append(out, st)
	}
	if unknown.Count > 0 {
		unknown.MeanSpeed /= float64(unknown.Count)
		out = append(out, unknown)
	}
	return out
}

// Diets renders the mean speed per diet as horizontal bars.
func Diets(w io.Writer, recs []model.Record, opts BarOptions) error {
	stats := DietStats(recs)
	var bars []model.Record
	for _, st := range stats {
		if st.Count == 0 {
			continue
		}
		name := fmt.Sprintf("%s (%d)", st.Diet, st.Count)
		bars = append(bars, model.Record{Name: name, Speed: st.MeanSpeed, Diet: st.Diet})
	}
	if len(bars) == 0 {
		return fmt.Errorf("chart diets: no records to render")
	}
	return Bar(w, "Mean top speed by diet", bars, opts)
}

// ─── Utilities ────────────────────────────────────────────────────────────────

func marker(d model.Diet) string {
	switch d {
	case model.Herbivore:
		return "H"
	case model.Carnivore:
		return "C"
	case model.Omnivore:
		return "O"
	}
	return "?"
}

func legend() string {
	parts := make([]string, 0, len(model.Diets))
	for _, d := range model.Diets {
		parts = append(parts, marker(d)+"="+string(d))
	}
	return strings.Join(parts, "  ")
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// formatFloat formats a speed for labels: integers without a decimal point,
// fractions with up to two decimals and no trailing zeros.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e9 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
