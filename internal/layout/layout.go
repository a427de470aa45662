package layout

import (
	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/scale"
	"github.com/derickschaefer/fauna/internal/util"
)

// ErrEmptyDataset is returned by Build for a dataset with no records.
var ErrEmptyDataset = scale.ErrEmptyDataset

// Group IDs, in draw order under the root "plot" group.
const (
	GroupPlot   = "plot"
	GroupXAxis  = "x-axis"
	GroupYAxis  = "y-axis"
	GroupBars   = "bars"
	GroupLabels = "labels"
	GroupLegend = "legend"
	GroupTitle  = "title"
)

const (
	axisStroke   = "#333333"
	tickSize     = 6
	labelGap     = 5
	swatchSize   = 18
	legendRow    = 25
	legendOffset = 20
)

// Options controls chart decoration. The zero value is not useful; start
// from DefaultOptions.
type Options struct {
	Margin model.Margin
	Title  string
	XLabel string
	YLabel string
	// YTicks is the tick count hint for the speed axis.
	YTicks int
	// CharWidth is the estimated pixel width of one label character, used to
	// decide whether x-axis labels must be rotated.
	CharWidth float64
}

// DefaultOptions returns the standard speed-by-diet chart decoration.
func DefaultOptions() Options {
	return Options{
		Margin:    model.Margin{Top: 60, Right: 150, Bottom: 110, Left: 70},
		Title:     "Top Speed of Animals by Diet",
		XLabel:    "Animal",
		YLabel:    "Top Speed (km/h)",
		YTicks:    6,
		CharWidth: 7,
	}
}

// Build computes the scene for ds on a surface of size dim.
// It never draws anything; an empty dataset yields ErrEmptyDataset before any
// scale is built.
func Build(ds model.Dataset, dim model.Dimensions, opts Options) (Scene, error) {
	if ds.Empty() {
		return Scene{}, ErrEmptyDataset
	}
	iw, ih := opts.Margin.Inner(dim)
	sc, err := scale.Build(ds, iw, ih)
	if err != nil {
		return Scene{}, err
	}

	root := Group{ID: GroupPlot, X: opts.Margin.Left, Y: opts.Margin.Top}
	root.Groups = []Group{
		xAxis(sc.X, iw, ih, opts),
		yAxis(sc.Y, ih, opts),
		bars(ds, sc, ih),
		barLabels(ds, sc),
		legend(sc.Color, iw),
		title(iw, opts),
	}

	return Scene{
		Width:  dim.Width,
		Height: dim.Height,
		Title:  opts.Title,
		Root:   root,
	}, nil
}

// Bar is the geometry of one record's bar, exposed for callers that need the
// numbers without walking a Scene.
type Bar struct {
	Key    string
	X, Y   float64
	Width  float64
	Height float64
}

// BarFor computes the bar for r under sc on a plot of height innerHeight.
// Height is innerHeight minus the scaled speed and is never negative; a zero
// speed gives a zero-height bar on the baseline.
func BarFor(r model.Record, sc scale.Scales, innerHeight float64) Bar {
	x, _ := sc.X.Position(r.Name)
	y := sc.Y.Scale(r.Speed)
	if y > innerHeight {
		y = innerHeight
	}
	return Bar{
		Key:    r.Name,
		X:      x,
		Y:      y,
		Width:  sc.X.Bandwidth(),
		Height: innerHeight - y,
	}
}

func bars(ds model.Dataset, sc scale.Scales, ih float64) Group {
	g := Group{ID: GroupBars, Rects: make([]Rect, 0, ds.Len())}
	for _, r := range ds.Records {
		b := BarFor(r, sc, ih)
		g.Rects = append(g.Rects, Rect{
			X:    b.X,
			Y:    b.Y,
			W:    b.Width,
			H:    b.Height,
			Fill: sc.Color.Color(string(r.Diet)),
			Key:  b.Key,
		})
	}
	return g
}

func barLabels(ds model.Dataset, sc scale.Scales) Group {
	g := Group{ID: GroupLabels, Texts: make([]Text, 0, ds.Len())}
	bw := sc.X.Bandwidth()
	for _, r := range ds.Records {
		x, _ := sc.X.Position(r.Name)
		g.Texts = append(g.Texts, Text{
			X:      x + bw/2,
			Y:      sc.Y.Scale(r.Speed) - labelGap,
			Value:  util.FormatValue(r.Speed),
			Anchor: AnchorMiddle,
			Class:  "bar-label",
		})
	}
	return g
}

func xAxis(x scale.Band, iw, ih float64, opts Options) Group {
	domain := x.Domain()
	g := Group{ID: GroupXAxis, Y: ih}
	g.Lines = append(g.Lines, Line{X1: 0, Y1: 0, X2: iw, Y2: 0, Stroke: axisStroke})

	rotate := needsRotation(domain, x.Bandwidth(), opts.CharWidth)
	for _, name := range domain {
		cx, _ := x.Center(name)
		g.Lines = append(g.Lines, Line{X1: cx, Y1: 0, X2: cx, Y2: tickSize, Stroke: axisStroke})
		t := Text{X: cx, Y: tickSize + 14, Value: name, Anchor: AnchorMiddle, Class: "tick"}
		if rotate {
			t = Text{X: cx, Y: tickSize + 3, Value: name, Anchor: AnchorEnd, Rotate: -45, Class: "tick"}
		}
		g.Texts = append(g.Texts, t)
	}

	g.Texts = append(g.Texts, Text{
		X:      iw / 2,
		Y:      opts.Margin.Bottom - 10,
		Value:  opts.XLabel,
		Anchor: AnchorMiddle,
		Class:  "axis-title",
	})
	return g
}

func yAxis(y scale.Linear, ih float64, opts Options) Group {
	g := Group{ID: GroupYAxis}
	g.Lines = append(g.Lines, Line{X1: 0, Y1: 0, X2: 0, Y2: ih, Stroke: axisStroke})
	for _, v := range y.Ticks(opts.YTicks) {
		py := y.Scale(v)
		g.Lines = append(g.Lines, Line{X1: -tickSize, Y1: py, X2: 0, Y2: py, Stroke: axisStroke})
		g.Texts = append(g.Texts, Text{
			X:      -tickSize - 3,
			Y:      py + 4,
			Value:  util.FormatValue(v),
			Anchor: AnchorEnd,
			Class:  "tick",
		})
	}
	g.Texts = append(g.Texts, Text{
		X:      -opts.Margin.Left + 18,
		Y:      ih / 2,
		Value:  opts.YLabel,
		Anchor: AnchorMiddle,
		Rotate: -90,
		Class:  "axis-title",
	})
	return g
}

func legend(c scale.Ordinal, iw float64) Group {
	g := Group{ID: GroupLegend, X: iw + legendOffset}
	for i, d := range c.Domain() {
		top := float64(i * legendRow)
		g.Rects = append(g.Rects, Rect{X: 0, Y: top, W: swatchSize, H: swatchSize, Fill: c.Color(d), Key: d})
		g.Texts = append(g.Texts, Text{X: swatchSize + 6, Y: top + 13, Value: d, Anchor: AnchorStart, Class: "legend"})
	}
	return g
}

func title(iw float64, opts Options) Group {
	return Group{ID: GroupTitle, Texts: []Text{{
		X:      iw / 2,
		Y:      -opts.Margin.Top / 2,
		Value:  opts.Title,
		Anchor: AnchorMiddle,
		Class:  "title",
	}}}
}

// needsRotation reports whether the longest label would overflow its band.
func needsRotation(labels []string, bandwidth, charWidth float64) bool {
	longest := 0
	for _, l := range labels {
		if n := len([]rune(l)); n > longest {
			longest = n
		}
	}
	return float64(longest)*charWidth > bandwidth
}
