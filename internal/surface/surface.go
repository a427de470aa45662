// Package surface owns the SVG drawing buffer a chart is rendered into.
//
// A Surface applies a layout.Scene with svgo. Every Draw discards the
// previous document first, so drawing the same scene twice yields the same
// bytes as drawing it once.
package surface

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	svg "github.com/ajstarks/svgo"

	"github.com/derickschaefer/fauna/internal/layout"
	"github.com/derickschaefer/fauna/internal/model"
)

// ErrReleased is returned when drawing on a surface that has been released.
var ErrReleased = errors.New("surface: released")

// Default sizes.
var (
	DefaultSize    = model.Dimensions{Width: 800, Height: 500}
	DefaultMinimum = model.Dimensions{Width: 600, Height: 400}
)

const fontFamily = "font-family:sans-serif;font-size:11px"

// Options configures a new Surface. Zero fields fall back to the defaults.
type Options struct {
	Size    model.Dimensions
	Minimum model.Dimensions
}

// Surface is safe for concurrent use.
type Surface struct {
	mu       sync.Mutex
	size     model.Dimensions
	min      model.Dimensions
	buf      bytes.Buffer
	drawn    bool
	released bool
	draws    int
}

// New returns an empty surface.
func New(opts Options) *Surface {
	s := &Surface{size: opts.Size, min: opts.Minimum}
	if s.size.Width <= 0 || s.size.Height <= 0 {
		s.size = DefaultSize
	}
	if s.min.Width <= 0 || s.min.Height <= 0 {
		s.min = DefaultMinimum
	}
	return s
}

// Resize records the container size. The size actually used for drawing is
// available from Dimensions.
func (s *Surface) Resize(d model.Dimensions) model.Dimensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = d
	return s.effective()
}

// Dimensions returns the drawing size: the container size, raised to the
// minimum on each axis.
func (s *Surface) Dimensions() model.Dimensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effective()
}

// Minimum returns the smallest drawing size the surface allows.
func (s *Surface) Minimum() model.Dimensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min
}

func (s *Surface) effective() model.Dimensions {
	return model.Dimensions{
		Width:  math.Max(s.size.Width, s.min.Width),
		Height: math.Max(s.size.Height, s.min.Height),
	}
}

// Draw replaces the current content with scene.
func (s *Surface) Draw(scene layout.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	s.buf.Reset()
	s.drawn = false

	canvas := svg.New(&s.buf)
	canvas.Start(px(scene.Width), px(scene.Height))
	if scene.Title != "" {
		canvas.Title(scene.Title)
	}
	canvas.Group(attr("style", fontFamily))
	drawGroup(canvas, scene.Root)
	canvas.Gend()
	canvas.End()

	s.drawn = true
	s.draws++
	return nil
}

// Clear discards any drawn content.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	s.drawn = false
}

// Bytes returns a copy of the current document, or nil when nothing is drawn.
func (s *Surface) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawn {
		return nil
	}
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out
}

// WriteTo writes the current document to w.
func (s *Surface) WriteTo(w io.Writer) (int64, error) {
	b := s.Bytes()
	if b == nil {
		return 0, errors.New("surface: nothing drawn")
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Drawn reports whether a chart is present.
func (s *Surface) Drawn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawn
}

// Draws returns how many times Draw has succeeded.
func (s *Surface) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// Release discards content and refuses further drawing.
func (s *Surface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	s.drawn = false
	s.released = true
}

// Released reports whether Release has been called.
func (s *Surface) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// ─── Scene application ───────────────────────────────────────────────────────

func drawGroup(canvas *svg.SVG, g layout.Group) {
	attrs := []string{}
	if g.ID != "" {
		attrs = append(attrs, attr("id", g.ID))
	}
	if g.X != 0 || g.Y != 0 {
		attrs = append(attrs, fmt.Sprintf(`transform="translate(%d,%d)"`, px(g.X), px(g.Y)))
	}
	canvas.Group(attrs...)

	for _, r := range g.Rects {
		rectAttrs := []string{"fill:" + r.Fill}
		if r.Key != "" {
			rectAttrs = append(rectAttrs, attr("data-key", r.Key))
		}
		canvas.Rect(px(r.X), px(r.Y), px(r.W), px(r.H), rectAttrs...)
	}
	for _, l := range g.Lines {
		canvas.Line(px(l.X1), px(l.Y1), px(l.X2), px(l.Y2), "stroke:"+l.Stroke)
	}
	for _, t := range g.Texts {
		x, y := px(t.X), px(t.Y)
		textAttrs := []string{attr("text-anchor", t.Anchor)}
		if t.Rotate != 0 {
			textAttrs = append(textAttrs, fmt.Sprintf(`transform="rotate(%g %d %d)"`, t.Rotate, x, y))
		}
		if t.Class != "" {
			textAttrs = append(textAttrs, attr("class", t.Class))
		}
		canvas.Text(x, y, t.Value, textAttrs...)
	}
	for _, c := range g.Groups {
		drawGroup(canvas, c)
	}

	canvas.Gend()
}

// attr formats name="value" with value escaped for XML. svgo escapes text
// content but passes attributes through verbatim.
func attr(name, value string) string {
	var b bytes.Buffer
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(&b, []byte(value))
	b.WriteByte('"')
	return b.String()
}

// px rounds a layout coordinate to the integer grid svgo draws on.
func px(v float64) int {
	return int(math.Round(v))
}
