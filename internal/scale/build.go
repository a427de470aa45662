package scale

import (
	"errors"

	"github.com/derickschaefer/fauna/internal/model"
)

// ErrEmptyDataset is returned by Build when there is nothing to scale.
// The maximum speed of an empty dataset is undefined, so callers must skip
// the render pass instead.
var ErrEmptyDataset = errors.New("scale: empty dataset")

// niceCount is the tick count hint used when rounding the speed domain.
const niceCount = 10

// Scales is the set of mappings derived from one dataset for one render pass.
type Scales struct {
	X     Band
	Y     Linear
	Color Ordinal
}

// Build derives the position, speed and colour scales for ds on a plotting
// area of innerWidth x innerHeight.
func Build(ds model.Dataset, innerWidth, innerHeight float64) (Scales, error) {
	if ds.Empty() {
		return Scales{}, ErrEmptyDataset
	}

	max := ds.MaxSpeed()
	if max <= 0 {
		max = 1 // all-zero speeds still need a non-degenerate domain
	}

	return Scales{
		X:     NewBand(ds.Names(), 0, innerWidth, DefaultPadding),
		Y:     NewLinear(0, max, innerHeight, 0).Nice(niceCount),
		Color: DietColors(),
	}, nil
}
