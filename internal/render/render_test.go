package render

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"palletvox.app/internal/editor"
	"palletvox.app/internal/grid"
	"palletvox.app/internal/persistence/store"
)

func simScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

func rowText(screen tcell.Screen, row, w int) string {
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, row)
		b.WriteRune(r)
	}
	return b.String()
}

func TestTerminal_DrawsCubesAndStatus(t *testing.T) {
	screen := simScreen(t, 60, 21)
	term := NewTerminal(screen, 8, 16)

	d := grid.Dimensions{Length: 2, Width: 2, Height: 2}
	s := editor.NewSession(store.Palette{ID: "p", Name: "Dock", Dimensions: d, Cubes: grid.FillAll(d)}, editor.Config{})
	s.Resize(term.Viewport())
	term.Draw(s.Frame())

	_, _, centre, _ := screen.GetContent(30, 10)
	cfg, cbg, _ := centre.Decompose()
	_, _, corner, _ := screen.GetContent(0, 0)
	_, bbg, _ := corner.Decompose()
	if cbg == bbg {
		t.Fatalf("centre cell not painted: fg=%v bg=%v", cfg, cbg)
	}

	status := rowText(screen, 20, 60)
	if !strings.Contains(status, "Dock") || !strings.Contains(status, "8/8 | 100.0%") || !strings.Contains(status, "[iso]") {
		t.Fatalf("status row=%q", status)
	}

	s.Empty()
	term.Draw(s.Frame())
	if status := rowText(screen, 20, 60); !strings.Contains(status, "again") {
		t.Fatalf("confirm prompt missing: %q", status)
	}
}

func TestTerminal_ViewportAndPoint(t *testing.T) {
	screen := simScreen(t, 10, 5)
	term := NewTerminal(screen, 8, 16)
	vp := term.Viewport()
	if vp.Width != 80 || vp.Height != 64 {
		t.Fatalf("viewport=%+v", vp)
	}
	p := term.Point(2, 1)
	if p.X != 20 || p.Y != 24 {
		t.Fatalf("point=%+v", p)
	}
}

type seqSource struct{ f atomic.Pointer[editor.Frame] }

func (s *seqSource) Frame() *editor.Frame { return s.f.Load() }

type countDrawer struct {
	mu   sync.Mutex
	seqs []uint64
}

func (c *countDrawer) Draw(f *editor.Frame) {
	c.mu.Lock()
	c.seqs = append(c.seqs, f.Seq)
	c.mu.Unlock()
}

func (c *countDrawer) snapshot() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.seqs...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestScheduler_DrawsOnlyNewFrames(t *testing.T) {
	src := &seqSource{}
	src.f.Store(&editor.Frame{Seq: 1})
	dst := &countDrawer{}
	s := NewScheduler(src, dst, 200)

	s.Start()
	s.Start()
	waitFor(t, func() bool { return len(dst.snapshot()) >= 1 })
	time.Sleep(30 * time.Millisecond)
	if got := dst.snapshot(); len(got) != 1 {
		t.Fatalf("unchanged frame redrawn: %v", got)
	}

	src.f.Store(&editor.Frame{Seq: 2})
	waitFor(t, func() bool { return len(dst.snapshot()) >= 2 })

	s.Invalidate()
	waitFor(t, func() bool { return len(dst.snapshot()) >= 3 })
	s.Stop()
	s.Stop()

	n := s.Draws()
	time.Sleep(20 * time.Millisecond)
	src.f.Store(&editor.Frame{Seq: 3})
	time.Sleep(20 * time.Millisecond)
	if s.Draws() != n {
		t.Fatalf("drew after Stop")
	}
	if got := dst.snapshot(); got[0] != 1 || got[1] != 2 || got[2] != 2 {
		t.Fatalf("draw order=%v", got)
	}
}
