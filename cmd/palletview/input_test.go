package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"palletvox.app/internal/camera"
	"palletvox.app/internal/editor"
	"palletvox.app/internal/picker"
)

// gridViewport is a 10x4 cell viewport of 10px cells with a status row below.
type gridViewport struct{}

func (gridViewport) Viewport() picker.Rect { return picker.Rect{Width: 100, Height: 40} }

func (gridViewport) Point(col, row int) picker.Point {
	return picker.Point{X: float64(col*10) + 5, Y: float64(row*10) + 5}
}

func mouse(col, row int, b tcell.ButtonMask) *tcell.EventMouse {
	return tcell.NewEventMouse(col, row, b, tcell.ModNone)
}

func TestTranslate_ClickIsDownUp(t *testing.T) {
	m := &inputMapper{vp: gridViewport{}}
	if got := m.translate(mouse(3, 1, tcell.ButtonNone)).events; len(got) != 1 {
		t.Fatalf("hover: %#v", got)
	} else if mv, ok := got[0].(editor.PointerMove); !ok || mv.Buttons != picker.ButtonNone {
		t.Fatalf("hover event: %#v", got[0])
	}

	got := m.translate(mouse(3, 1, tcell.Button1)).events
	if len(got) != 1 {
		t.Fatalf("press: %#v", got)
	}
	if d, ok := got[0].(editor.PointerDown); !ok || d.At != (picker.Point{X: 35, Y: 15}) {
		t.Fatalf("press event: %#v", got[0])
	}

	got = m.translate(mouse(3, 1, tcell.ButtonNone)).events
	if len(got) != 1 {
		t.Fatalf("release: %#v", got)
	}
	if _, ok := got[0].(editor.PointerUp); !ok {
		t.Fatalf("release event: %#v", got[0])
	}
}

func TestTranslate_DragMovesWithPrimary(t *testing.T) {
	m := &inputMapper{vp: gridViewport{}}
	m.translate(mouse(1, 1, tcell.Button1))

	got := m.translate(mouse(4, 2, tcell.Button1)).events
	if len(got) != 1 {
		t.Fatalf("drag: %#v", got)
	}
	if mv, ok := got[0].(editor.PointerMove); !ok || mv.Buttons != picker.ButtonPrimary {
		t.Fatalf("drag event: %#v", got[0])
	}

	// Release elsewhere reports the final position before the up.
	got = m.translate(mouse(6, 2, tcell.ButtonNone)).events
	if len(got) != 2 {
		t.Fatalf("release: %#v", got)
	}
	if _, ok := got[0].(editor.PointerMove); !ok {
		t.Fatalf("first: %#v", got[0])
	}
	if up, ok := got[1].(editor.PointerUp); !ok || up.At != (picker.Point{X: 65, Y: 25}) {
		t.Fatalf("second: %#v", got[1])
	}
}

func TestTranslate_LeaveAndWheel(t *testing.T) {
	m := &inputMapper{vp: gridViewport{}}
	m.translate(mouse(2, 2, tcell.ButtonNone))

	// Row 4 is the status bar.
	got := m.translate(mouse(2, 4, tcell.ButtonNone)).events
	if len(got) != 1 {
		t.Fatalf("leave: %#v", got)
	}
	if _, ok := got[0].(editor.PointerLeave); !ok {
		t.Fatalf("leave event: %#v", got[0])
	}
	if got := m.translate(mouse(2, 4, tcell.ButtonNone)).events; len(got) != 0 {
		t.Fatalf("repeat outside: %#v", got)
	}

	got = m.translate(mouse(2, 2, tcell.WheelUp)).events
	if z, ok := got[0].(editor.Zoom); !ok || z.Direction >= 0 {
		t.Fatalf("wheel up: %#v", got)
	}
	got = m.translate(mouse(2, 2, tcell.WheelDown)).events
	if z, ok := got[0].(editor.Zoom); !ok || z.Direction <= 0 {
		t.Fatalf("wheel down: %#v", got)
	}
}

func TestTranslate_Keys(t *testing.T) {
	m := &inputMapper{vp: gridViewport{}}
	key := func(r rune) translated {
		return m.translate(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}

	if !key('q').quit || !m.translate(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)).quit {
		t.Fatalf("q and esc should quit")
	}
	cases := map[rune]editor.Event{
		'f': editor.FillAll{},
		'e': editor.EmptyAll{},
		'a': editor.AddAbove{},
		'r': editor.ResetView{},
		'[': editor.AdjustExtra{Delta: -1},
		']': editor.AdjustExtra{Delta: 1},
		'3': editor.SetView{View: camera.ViewTop},
	}
	for r, want := range cases {
		got := key(r).events
		if len(got) != 1 || got[0] != want {
			t.Fatalf("%q: got %#v want %#v", r, got, want)
		}
	}
	if got := key('z').events; len(got) != 0 {
		t.Fatalf("unbound key: %#v", got)
	}
}

func TestTranslate_Resize(t *testing.T) {
	m := &inputMapper{vp: gridViewport{}}
	tr := m.translate(tcell.NewEventResize(10, 5))
	if !tr.resize || len(tr.events) != 1 {
		t.Fatalf("resize: %+v", tr)
	}
	if r, ok := tr.events[0].(editor.Resize); !ok || r.Rect.Width != 100 {
		t.Fatalf("resize event: %#v", tr.events[0])
	}
}
