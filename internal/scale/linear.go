package scale

import "math"

// Tick step thresholds for the 1-2-5 progression.
var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Linear maps a continuous domain [D0, D1] onto a range [R0, R1].
// The range may be inverted (R0 > R1), which is how the vertical axis puts
// larger values higher on screen.
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

// NewLinear builds a linear scale.
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Scale maps v from the domain to the range. A zero-width domain maps every
// value to the middle of the range.
func (l Linear) Scale(v float64) float64 {
	if l.D1 == l.D0 {
		return (l.R0 + l.R1) / 2
	}
	t := (v - l.D0) / (l.D1 - l.D0)
	return l.R0 + t*(l.R1-l.R0)
}

// Nice extends the domain outward so both ends fall on round tick values
// for roughly count ticks. count <= 0 uses 10.
func (l Linear) Nice(count int) Linear {
	if count <= 0 {
		count = 10
	}
	start, stop := l.D0, l.D1
	reversed := stop < start
	if reversed {
		start, stop = stop, start
	}

	prestep := math.NaN()
	for i := 0; i < 10; i++ {
		step := tickIncrement(start, stop, float64(count))
		if step == 0 || step == prestep {
			break
		}
		if step > 0 {
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		} else {
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		}
		prestep = step
	}

	if reversed {
		start, stop = stop, start
	}
	l.D0, l.D1 = start, stop
	return l
}

// Ticks returns round values inside the domain, approximately count of them.
func (l Linear) Ticks(count int) []float64 {
	return Ticks(l.D0, l.D1, count)
}

// Ticks returns approximately count round values in [start, stop].
func Ticks(start, stop float64, count int) []float64 {
	if count <= 0 {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reversed := stop < start
	if reversed {
		start, stop = stop, start
	}
	i1, i2, inc := tickSpec(start, stop, float64(count))
	if i2 < i1 {
		return nil
	}
	n := int(i2-i1) + 1
	ticks := make([]float64, n)
	for i := 0; i < n; i++ {
		if inc < 0 {
			ticks[i] = (i1 + float64(i)) / -inc
		} else {
			ticks[i] = (i1 + float64(i)) * inc
		}
	}
	if reversed {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

// tickSpec returns the index range [i1, i2] and increment of the tick
// sequence. A negative increment encodes 1/|inc| to keep fractional steps
// exact.
func tickSpec(start, stop, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	factor := stepFactor(step / math.Pow(10, power))
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && count >= 0.5 && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

// tickIncrement returns the tick step for [start, stop]; negative values
// encode fractional steps as in tickSpec. Returns 0 for an empty interval.
func tickIncrement(start, stop, count float64) float64 {
	step := (stop - start) / math.Max(0, count)
	if step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return 0
	}
	power := math.Floor(math.Log10(step))
	factor := stepFactor(step / math.Pow(10, power))
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

func stepFactor(err float64) float64 {
	switch {
	case err >= e10:
		return 10
	case err >= e5:
		return 5
	case err >= e2:
		return 2
	default:
		return 1
	}
}
