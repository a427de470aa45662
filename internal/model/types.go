// Package model defines the canonical data types used throughout fauna.
// These types are the single source of truth for species records, the
// datasets built from them, and the result envelope every command returns.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ─── Diet ─────────────────────────────────────────────────────────────────────

// Diet is the category label of a record. Only the three values in Diets are
// valid; anything else is rejected at parse time.
type Diet string

const (
	Herbivore Diet = "Herbivore"
	Carnivore Diet = "Carnivore"
	Omnivore  Diet = "Omnivore"
)

// Diets lists every valid diet in legend order.
var Diets = []Diet{Herbivore, Carnivore, Omnivore}

// Valid reports whether d is one of Diets.
func (d Diet) Valid() bool {
	for _, v := range Diets {
		if d == v {
			return true
		}
	}
	return false
}

// ParseDiet returns the Diet matching s exactly (after trimming spaces).
func ParseDiet(s string) (Diet, error) {
	d := Diet(strings.TrimSpace(s))
	if !d.Valid() {
		return "", fmt.Errorf("unknown diet %q: expected Herbivore, Carnivore or Omnivore", s)
	}
	return d, nil
}

// ─── Records ──────────────────────────────────────────────────────────────────

// Record is one species observation: a display name used as a categorical
// key, a non-negative top speed in km/h, and a diet.
type Record struct {
	Name  string  `json:"animal" yaml:"animal"`
	Speed float64 `json:"top_speed_kmh" yaml:"top_speed_kmh"`
	Diet  Diet    `json:"diet" yaml:"diet"`
}

// Dataset is an ordered sequence of records; order is left-to-right chart
// order. A Dataset is never mutated after it is built; reloads replace it.
type Dataset struct {
	Source   string    `json:"source" yaml:"source"`
	Records  []Record  `json:"records" yaml:"records"`
	LoadedAt time.Time `json:"loaded_at" yaml:"loaded_at"`
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.Records) }

// Empty reports whether the dataset holds no records.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// Names returns record names in dataset order, duplicates included.
func (d Dataset) Names() []string {
	names := make([]string, len(d.Records))
	for i, r := range d.Records {
		names[i] = r.Name
	}
	return names
}

// MaxSpeed returns the largest speed in the dataset, or 0 when empty.
func (d Dataset) MaxSpeed() float64 {
	max := 0.0
	for _, r := range d.Records {
		if r.Speed > max {
			max = r.Speed
		}
	}
	return max
}

// DuplicateNames returns names that occur more than once, in first-seen order.
func (d Dataset) DuplicateNames() []string {
	seen := make(map[string]int, len(d.Records))
	var dups []string
	for _, r := range d.Records {
		seen[r.Name]++
		if seen[r.Name] == 2 {
			dups = append(dups, r.Name)
		}
	}
	return dups
}

// CountByDiet returns how many records carry each diet.
func (d Dataset) CountByDiet() map[Diet]int {
	counts := make(map[Diet]int, len(Diets))
	for _, r := range d.Records {
		counts[r.Diet]++
	}
	return counts
}

// RowError describes a CSV row that was rejected during parsing.
// Line is 1-based and counts the header as line 1.
type RowError struct {
	Line   int    `json:"line" yaml:"line"`
	Field  string `json:"field" yaml:"field"`
	Value  string `json:"value" yaml:"value"`
	Reason string `json:"reason" yaml:"reason"`
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %s %q: %s", e.Line, e.Field, e.Value, e.Reason)
}

// IsInvalidSpeed reports whether v cannot be drawn as a bar height.
func IsInvalidSpeed(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v < 0
}

// ─── Geometry ─────────────────────────────────────────────────────────────────

// Dimensions is the pixel size of a drawing surface.
type Dimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Margin is the space reserved around the plotting area for axes, legend
// and title.
type Margin struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// Inner returns the plotting area left after subtracting m from d.
// Negative results are clamped to zero.
func (m Margin) Inner(d Dimensions) (width, height float64) {
	width = math.Max(0, d.Width-m.Left-m.Right)
	height = math.Max(0, d.Height-m.Top-m.Bottom)
	return width, height
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries timing and size metadata for a command result.
type ResultStats struct {
	FromStore  bool  `json:"from_store" yaml:"from_store"`
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`
	Items      int   `json:"items" yaml:"items"`
	Skipped    int   `json:"skipped" yaml:"skipped"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind" yaml:"kind"`
	GeneratedAt time.Time   `json:"generated_at" yaml:"generated_at"`
	Command     string      `json:"command" yaml:"command"`
	Data        interface{} `json:"data" yaml:"data"`
	Warnings    []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Stats       ResultStats `json:"stats" yaml:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindRecords   = "records"
	KindScene     = "scene"
	KindDatasets  = "datasets"
	KindSnapshots = "snapshots"
	KindBuckets   = "buckets"
	KindSummary   = "summary"
	KindTable     = "table"
)

// DatasetSummary describes a cached dataset without its records.
type DatasetSummary struct {
	Source    string    `json:"source" yaml:"source"`
	Records   int       `json:"records" yaml:"records"`
	MaxSpeed  float64   `json:"max_speed" yaml:"max_speed"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Summarize builds a DatasetSummary for d.
func Summarize(d Dataset) DatasetSummary {
	return DatasetSummary{
		Source:    d.Source,
		Records:   d.Len(),
		MaxSpeed:  d.MaxSpeed(),
		FetchedAt: d.LoadedAt,
	}
}

// Table is a generic header-plus-rows payload for KindTable results.
type Table struct {
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}
