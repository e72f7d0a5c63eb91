package render

import (
	"math"
	"sort"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"palletvox.app/internal/editor"
	"palletvox.app/internal/picker"
	"palletvox.app/internal/scene"
)

var background = colorful.Color{R: 0.07, G: 0.07, B: 0.09}

// Terminal draws frames on a tcell screen. Each cell counts as cellW x cellH
// pseudo-pixels so pointer positions and the drag threshold keep pixel units.
// The bottom row is the status bar.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
	cellW  int
	cellH  int
}

func NewTerminal(screen tcell.Screen, cellW, cellH int) *Terminal {
	if cellW <= 0 {
		cellW = 8
	}
	if cellH <= 0 {
		cellH = 16
	}
	return &Terminal{screen: screen, cellW: cellW, cellH: cellH}
}

// Viewport is the drawable area in pseudo-pixels.
func (t *Terminal) Viewport() picker.Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, h := t.screen.Size()
	if h > 1 {
		h--
	}
	return picker.Rect{Width: float64(w * t.cellW), Height: float64(h * t.cellH)}
}

// Point maps a terminal cell to the pseudo-pixel at its centre.
func (t *Terminal) Point(col, row int) picker.Point {
	return picker.Point{
		X: float64(col*t.cellW) + float64(t.cellW)/2,
		Y: float64(row*t.cellH) + float64(t.cellH)/2,
	}
}

func (t *Terminal) cell(x, y float64) (col, row int) {
	return int(math.Floor(x / float64(t.cellW))), int(math.Floor(y / float64(t.cellH)))
}

type span struct {
	depth          float64
	c0, r0, c1, r1 int
	fill, edge     tcell.Color
	highlighted    bool
}

// Draw paints f back to front.
func (t *Terminal) Draw(f *editor.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, h := t.screen.Size()
	bg := tcell.StyleDefault.Background(toTcell(background))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t.screen.SetContent(x, y, ' ', nil, bg)
		}
	}
	rows := h - 1
	if rows < 1 {
		t.screen.Show()
		return
	}

	spans := make([]span, 0, len(f.Cubes))
	half := scene.CubeSize / 2
	for _, c := range f.Cubes {
		sp, ok := t.project(f, c.Position, half)
		if !ok {
			continue
		}
		sp.depth = c.Position.Sub(f.Transform.Eye).Len()
		sp.fill = toTcell(background.BlendRgb(c.Color, c.Opacity))
		sp.edge = toTcell(f.Edge)
		sp.highlighted = c.Highlighted
		spans = append(spans, sp)
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].depth > spans[j].depth })

	for _, sp := range spans {
		fill := tcell.StyleDefault.Background(sp.fill).Foreground(sp.edge)
		for r := max(sp.r0, 0); r <= min(sp.r1, rows-1); r++ {
			for c := max(sp.c0, 0); c <= min(sp.c1, w-1); c++ {
				ch := ' '
				if r == sp.r0 || r == sp.r1 || c == sp.c0 || c == sp.c1 {
					ch = '░'
				}
				if sp.highlighted {
					ch = '▓'
				}
				t.screen.SetContent(c, r, ch, nil, fill)
			}
		}
	}

	t.status(f, w, h-1)
	t.screen.Show()
}

// project returns the cell rectangle covered by the cube centred at pos.
func (t *Terminal) project(f *editor.Frame, pos mgl64.Vec3, half float64) (span, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < 8; i++ {
		corner := pos.Add(mgl64.Vec3{
			sign(i&1) * half,
			sign(i&2) * half,
			sign(i&4) * half,
		})
		ndc, ok := f.Transform.Project(corner)
		if !ok {
			return span{}, false
		}
		x := f.Rect.Left + (ndc.X()+1)/2*f.Rect.Width
		y := f.Rect.Top + (1-ndc.Y())/2*f.Rect.Height
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	c0, r0 := t.cell(minX, minY)
	c1, r1 := t.cell(maxX, maxY)
	return span{c0: c0, r0: r0, c1: c1, r1: r1}, true
}

func (t *Terminal) status(f *editor.Frame, w, row int) {
	st := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	text := " " + f.Name + "  " + f.Dimensions.String() + "  " + f.Stats.Badge()
	if f.View != "" {
		text += "  [" + string(f.View) + "]"
	}
	if f.Hover != "" {
		text += "  @" + string(f.Hover)
	}
	if f.Confirming {
		st = st.Background(tcell.ColorMaroon)
		text += "  press e again to empty"
	}
	col := 0
	for _, r := range text {
		if col >= w {
			break
		}
		t.screen.SetContent(col, row, r, nil, st)
		col++
	}
	for ; col < w; col++ {
		t.screen.SetContent(col, row, ' ', nil, st)
	}
}

func sign(bit int) float64 {
	if bit != 0 {
		return 1
	}
	return -1
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
