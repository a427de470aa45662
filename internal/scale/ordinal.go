package scale

import "github.com/derickschaefer/fauna/internal/model"

// Default diet colours, in model.Diets order.
const (
	ColorHerbivore = "#4daf4a"
	ColorCarnivore = "#e41a1c"
	ColorOmnivore  = "#377eb8"
	ColorUnknown   = "#9e9e9e"
)

// Ordinal maps a fixed, ordered set of categories to colours. Values outside
// the domain map to Unknown rather than failing.
type Ordinal struct {
	domain  []string
	colors  map[string]string
	Unknown string
}

// NewOrdinal pairs domain[i] with colors[i]. Extra entries on either side are
// ignored.
func NewOrdinal(domain, colors []string, unknown string) Ordinal {
	n := len(domain)
	if len(colors) < n {
		n = len(colors)
	}
	o := Ordinal{
		domain:  make([]string, 0, n),
		colors:  make(map[string]string, n),
		Unknown: unknown,
	}
	for i := 0; i < n; i++ {
		if _, ok := o.colors[domain[i]]; ok {
			continue
		}
		o.domain = append(o.domain, domain[i])
		o.colors[domain[i]] = colors[i]
	}
	return o
}

// DietColors returns the default diet colour scale.
func DietColors() Ordinal {
	domain := make([]string, len(model.Diets))
	for i, d := range model.Diets {
		domain[i] = string(d)
	}
	return NewOrdinal(domain,
		[]string{ColorHerbivore, ColorCarnivore, ColorOmnivore},
		ColorUnknown)
}

// Color returns the colour for v, or Unknown when v is not in the domain.
func (o Ordinal) Color(v string) string {
	if c, ok := o.colors[v]; ok {
		return c
	}
	return o.Unknown
}

// Domain returns the categories in legend order.
func (o Ordinal) Domain() []string {
	out := make([]string, len(o.domain))
	copy(out, o.domain)
	return out
}
