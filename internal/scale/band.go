// Package scale maps data values onto drawing coordinates and colours.
//
// Three scales back the bar chart:
//
//   - Band: animal name → horizontal band (position + bandwidth)
//   - Linear: speed → vertical position, with a "nice" rounded domain
//   - Ordinal: diet → colour, with a fixed fallback for unknown values
//
// Scales are plain values; they hold no references to the dataset they were
// built from and are rebuilt on every render.
package scale

import "math"

// DefaultPadding is the fraction of each step left empty between bands.
const DefaultPadding = 0.2

// Band places an ordered set of discrete keys into contiguous, padded
// intervals along [R0, R1]. Duplicate keys collapse onto their first position.
type Band struct {
	keys  []string
	index map[string]int
	r0    float64
	r1    float64

	paddingInner float64
	paddingOuter float64
	align        float64

	step      float64
	bandwidth float64
	start     float64
}

// NewBand builds a band scale over keys (in order) for the range [r0, r1],
// using padding for both inner and outer padding and centre alignment.
func NewBand(keys []string, r0, r1, padding float64) Band {
	b := Band{
		index:        make(map[string]int, len(keys)),
		r0:           r0,
		r1:           r1,
		paddingInner: clamp(padding, 0, 1),
		paddingOuter: math.Max(0, padding),
		align:        0.5,
	}
	for _, k := range keys {
		if _, ok := b.index[k]; ok {
			continue
		}
		b.index[k] = len(b.keys)
		b.keys = append(b.keys, k)
	}
	b.rescale()
	return b
}

func (b *Band) rescale() {
	n := float64(len(b.keys))
	span := b.r1 - b.r0
	b.step = span / math.Max(1, n-b.paddingInner+2*b.paddingOuter)
	b.start = b.r0 + (span-b.step*(n-b.paddingInner))*b.align
	b.bandwidth = b.step * (1 - b.paddingInner)
}

// Position returns the start coordinate of key's band. ok is false for keys
// outside the domain.
func (b Band) Position(key string) (pos float64, ok bool) {
	i, ok := b.index[key]
	if !ok {
		return math.NaN(), false
	}
	return b.start + b.step*float64(i), true
}

// Center returns the midpoint of key's band.
func (b Band) Center(key string) (float64, bool) {
	pos, ok := b.Position(key)
	return pos + b.bandwidth/2, ok
}

// Bandwidth is the drawn width of each band.
func (b Band) Bandwidth() float64 { return b.bandwidth }

// Step is the distance between the starts of adjacent bands.
func (b Band) Step() float64 { return b.step }

// Domain returns the unique keys in band order.
func (b Band) Domain() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Range returns the configured output interval.
func (b Band) Range() (float64, float64) { return b.r0, b.r1 }

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
