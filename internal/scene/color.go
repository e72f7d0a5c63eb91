package scene

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Ramp colours cartons by stacking level, dark at the deck and light at the top.
type Ramp struct {
	Bottom colorful.Color
	Top    colorful.Color
	Hover  colorful.Color
	Edge   colorful.Color
}

// Carton browns and the hover blue used by the editor.
const (
	DefaultBottomHex = "#8b6914"
	DefaultTopHex    = "#e8d4b0"
	DefaultHoverHex  = "#60a5fa"
	DefaultEdgeHex   = "#1e3a8a"
)

func DefaultRamp() Ramp {
	r, _ := ParseRamp(DefaultBottomHex, DefaultTopHex, DefaultHoverHex, DefaultEdgeHex)
	return r
}

func ParseRamp(bottom, top, hover, edge string) (Ramp, error) {
	var r Ramp
	for _, p := range []struct {
		name string
		hex  string
		dst  *colorful.Color
	}{
		{"bottom", bottom, &r.Bottom},
		{"top", top, &r.Top},
		{"hover", hover, &r.Hover},
		{"edge", edge, &r.Edge},
	} {
		c, err := colorful.Hex(p.hex)
		if err != nil {
			return Ramp{}, fmt.Errorf("%s colour %q: %w", p.name, p.hex, err)
		}
		*p.dst = c
	}
	return r, nil
}

// Level returns the colour for level z of a grid that is height levels tall.
func (r Ramp) Level(z, height int) colorful.Color {
	t := 0.5
	if height > 1 {
		t = float64(z) / float64(height-1)
	}
	return r.Bottom.BlendRgb(r.Top, t).Clamped()
}
