// Package layout turns a dataset into a Scene: a display-independent list of
// drawing primitives (rectangles, lines, text) arranged in nested,
// translated groups. Building a scene is a pure function of the dataset and
// the surface dimensions, so the whole chart geometry can be tested without
// a display; package surface applies a Scene to an SVG canvas.
package layout

// Scene is the complete drawable description of one chart.
type Scene struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Title  string  `json:"title" yaml:"title"`
	Root   Group   `json:"root" yaml:"root"`
}

// Group is a translated container. Primitives are drawn in the order
// Rects, Lines, Texts, then child Groups.
type Group struct {
	ID     string  `json:"id" yaml:"id"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Rects  []Rect  `json:"rects,omitempty" yaml:"rects,omitempty"`
	Lines  []Line  `json:"lines,omitempty" yaml:"lines,omitempty"`
	Texts  []Text  `json:"texts,omitempty" yaml:"texts,omitempty"`
	Groups []Group `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Rect is a filled rectangle. Key names the datum it represents.
type Rect struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	W    float64 `json:"w" yaml:"w"`
	H    float64 `json:"h" yaml:"h"`
	Fill string  `json:"fill" yaml:"fill"`
	Key  string  `json:"key,omitempty" yaml:"key,omitempty"`
}

// Line is a stroked segment.
type Line struct {
	X1     float64 `json:"x1" yaml:"x1"`
	Y1     float64 `json:"y1" yaml:"y1"`
	X2     float64 `json:"x2" yaml:"x2"`
	Y2     float64 `json:"y2" yaml:"y2"`
	Stroke string  `json:"stroke" yaml:"stroke"`
}

// Text anchor values.
const (
	AnchorStart  = "start"
	AnchorMiddle = "middle"
	AnchorEnd    = "end"
)

// Text is a label. Rotate is in degrees about (X, Y).
type Text struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Value  string  `json:"value" yaml:"value"`
	Anchor string  `json:"anchor" yaml:"anchor"`
	Rotate float64 `json:"rotate,omitempty" yaml:"rotate,omitempty"`
	Class  string  `json:"class,omitempty" yaml:"class,omitempty"`
}

// Find returns the first group with the given ID in a depth-first walk.
func (g *Group) Find(id string) *Group {
	if g.ID == id {
		return g
	}
	for i := range g.Groups {
		if found := g.Groups[i].Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Counts tallies primitives per group ID.
type Counts struct {
	Group string `json:"group" yaml:"group"`
	Rects int    `json:"rects" yaml:"rects"`
	Lines int    `json:"lines" yaml:"lines"`
	Texts int    `json:"texts" yaml:"texts"`
}

// Count returns per-group primitive counts in draw order.
func (s Scene) Count() []Counts {
	var out []Counts
	var walk func(g Group)
	walk = func(g Group) {
		out = append(out, Counts{Group: g.ID, Rects: len(g.Rects), Lines: len(g.Lines), Texts: len(g.Texts)})
		for _, c := range g.Groups {
			walk(c)
		}
	}
	walk(s.Root)
	return out
}
