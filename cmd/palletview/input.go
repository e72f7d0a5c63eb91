package main

import (
	"github.com/gdamore/tcell/v2"

	"palletvox.app/internal/camera"
	"palletvox.app/internal/editor"
	"palletvox.app/internal/picker"
)

// Viewport is the part of the terminal the mapper needs. *render.Terminal
// satisfies it.
type Viewport interface {
	Viewport() picker.Rect
	Point(col, row int) picker.Point
}

// inputMapper turns tcell events into editor events. tcell reports button
// state per event, so press and release are derived from transitions.
type inputMapper struct {
	vp      Viewport
	buttons tcell.ButtonMask
	inside  bool
	last    picker.Point
}

type translated struct {
	events []editor.Event
	quit   bool
	resize bool
}

var viewKeys = map[rune]camera.View{
	'1': camera.ViewFront,
	'2': camera.ViewSide,
	'3': camera.ViewTop,
	'4': camera.ViewIso,
}

func (m *inputMapper) translate(ev tcell.Event) translated {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		return translated{events: []editor.Event{editor.Resize{Rect: m.vp.Viewport()}}, resize: true}
	case *tcell.EventKey:
		return m.key(ev)
	case *tcell.EventMouse:
		return translated{events: m.mouse(ev)}
	}
	return translated{}
}

func (m *inputMapper) key(ev *tcell.EventKey) translated {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return translated{quit: true}
	case tcell.KeyRune:
	default:
		return translated{}
	}
	var out editor.Event
	switch r := ev.Rune(); r {
	case 'q':
		return translated{quit: true}
	case 'f':
		out = editor.FillAll{}
	case 'e':
		out = editor.EmptyAll{}
	case 'a':
		out = editor.AddAbove{}
	case 'r':
		out = editor.ResetView{}
	case '+', '=':
		out = editor.Zoom{Direction: -1}
	case '-':
		out = editor.Zoom{Direction: 1}
	case '[':
		out = editor.AdjustExtra{Delta: -1}
	case ']':
		out = editor.AdjustExtra{Delta: 1}
	default:
		v, ok := viewKeys[r]
		if !ok {
			return translated{}
		}
		out = editor.SetView{View: v}
	}
	return translated{events: []editor.Event{out}}
}

func (m *inputMapper) mouse(ev *tcell.EventMouse) []editor.Event {
	col, row := ev.Position()
	p := m.vp.Point(col, row)
	now := ev.Buttons()
	prev := m.buttons
	m.buttons = now &^ (tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight)

	var out []editor.Event
	switch {
	case now&tcell.WheelUp != 0:
		return []editor.Event{editor.Zoom{Direction: -1}}
	case now&tcell.WheelDown != 0:
		return []editor.Event{editor.Zoom{Direction: 1}}
	}

	inside := m.vp.Viewport().Contains(p)
	if !inside && m.inside && prev&tcell.Button1 == 0 {
		m.inside = false
		m.last = p
		return []editor.Event{editor.PointerLeave{}}
	}
	m.inside = inside

	pressed := now&tcell.Button1 != 0
	wasPressed := prev&tcell.Button1 != 0
	switch {
	case pressed && !wasPressed:
		out = append(out, editor.PointerDown{At: p})
	case pressed && wasPressed:
		if p != m.last {
			out = append(out, editor.PointerMove{At: p, Buttons: picker.ButtonPrimary})
		}
	case !pressed && wasPressed:
		if p != m.last {
			out = append(out, editor.PointerMove{At: p, Buttons: picker.ButtonPrimary})
		}
		out = append(out, editor.PointerUp{At: p})
	case now == tcell.ButtonNone:
		if p != m.last {
			out = append(out, editor.PointerMove{At: p, Buttons: picker.ButtonNone})
		}
	}
	m.last = p
	return out
}
