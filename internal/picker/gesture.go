// Package picker turns pointer gestures into orbit drags and cell picks.
package picker

import "math"

// DefaultDragThreshold is how far, in device-independent pixels, the pointer
// must travel from the down position before a press becomes an orbit drag.
const DefaultDragThreshold = 10.0

type Point struct {
	X, Y float64
}

type State int

const (
	Idle State = iota
	Armed
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Buttons is the pressed-button mask reported with a move.
type Buttons uint8

const (
	ButtonNone    Buttons = 0
	ButtonPrimary Buttons = 1
)

type ActionKind int

const (
	ActNone ActionKind = iota
	// ActOrbit carries the delta since the previous move.
	ActOrbit
	// ActHover asks for a highlight-only pick at the move position.
	ActHover
)

type Action struct {
	Kind   ActionKind
	DX, DY float64
}

// Gesture tracks one pointer press at a time. The zero value is unusable; use
// NewGesture.
type Gesture struct {
	threshold float64

	state State
	down  Point
	last  Point
}

func NewGesture(threshold float64) *Gesture {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &Gesture{threshold: threshold}
}

func (g *Gesture) State() State { return g.state }

func (g *Gesture) Down(p Point) {
	g.state = Armed
	g.down = p
	g.last = p
}

// Move reports what a pointer move should do. Once a press has travelled the
// threshold it stays a drag until Up, wherever the pointer ends.
func (g *Gesture) Move(p Point, b Buttons) Action {
	dx, dy := p.X-g.last.X, p.Y-g.last.Y
	g.last = p

	if g.state == Armed && math.Hypot(p.X-g.down.X, p.Y-g.down.Y) >= g.threshold {
		g.state = Dragging
	}

	switch {
	case b&ButtonPrimary != 0 && g.state == Dragging:
		return Action{Kind: ActOrbit, DX: dx, DY: dy}
	case b == ButtonNone:
		return Action{Kind: ActHover}
	default:
		return Action{}
	}
}

// Up ends the gesture. commit is true when the press never became a drag and
// p is still inside the threshold, so a missed move cannot turn a drag into a
// click.
func (g *Gesture) Up(p Point) (commit bool) {
	commit = g.state == Armed && math.Hypot(p.X-g.down.X, p.Y-g.down.Y) < g.threshold
	g.state = Idle
	g.last = p
	return commit
}

// Cancel drops the current press without committing, e.g. when the pointer
// leaves the viewport.
func (g *Gesture) Cancel() { g.state = Idle }
