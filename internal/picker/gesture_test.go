package picker

import "testing"

func TestGesture_ShortMoveCommits(t *testing.T) {
	g := NewGesture(DefaultDragThreshold)
	g.Down(Point{100, 100})
	if a := g.Move(Point{104, 103}, ButtonPrimary); a.Kind != ActNone {
		t.Fatalf("armed move with button should do nothing, got %v", a.Kind)
	}
	if g.State() != Armed {
		t.Fatalf("state=%v want armed", g.State())
	}
	if !g.Up(Point{104, 103}) {
		t.Fatalf("expected commit")
	}
	if g.State() != Idle {
		t.Fatalf("state=%v want idle", g.State())
	}
}

func TestGesture_DragAnywhereSuppressesCommit(t *testing.T) {
	g := NewGesture(DefaultDragThreshold)
	g.Down(Point{0, 0})
	g.Move(Point{6, 8}, ButtonPrimary) // exactly 10px
	if g.State() != Dragging {
		t.Fatalf("state=%v want dragging", g.State())
	}
	// Coming back to the start does not re-arm.
	a := g.Move(Point{0, 0}, ButtonPrimary)
	if a.Kind != ActOrbit || a.DX != -6 || a.DY != -8 {
		t.Fatalf("action=%+v", a)
	}
	if g.Up(Point{0, 0}) {
		t.Fatalf("drag must not commit")
	}
}

func TestGesture_OrbitDeltasAreIncremental(t *testing.T) {
	g := NewGesture(DefaultDragThreshold)
	g.Down(Point{10, 10})
	g.Move(Point{30, 10}, ButtonPrimary)
	a := g.Move(Point{33, 12}, ButtonPrimary)
	if a.Kind != ActOrbit || a.DX != 3 || a.DY != 2 {
		t.Fatalf("action=%+v", a)
	}
}

func TestGesture_HoverWithoutButtons(t *testing.T) {
	g := NewGesture(DefaultDragThreshold)
	if a := g.Move(Point{5, 5}, ButtonNone); a.Kind != ActHover {
		t.Fatalf("idle move=%v want hover", a.Kind)
	}
	g.Down(Point{0, 0})
	g.Move(Point{50, 50}, ButtonNone)
	if g.State() != Dragging {
		t.Fatalf("distance should still be tracked while hovering")
	}
}

func TestGesture_NoCommitWithoutDown(t *testing.T) {
	g := NewGesture(0)
	if g.Up(Point{1, 1}) {
		t.Fatalf("up without down committed")
	}
	g.Down(Point{1, 1})
	g.Cancel()
	if g.Up(Point{1, 1}) {
		t.Fatalf("cancelled press committed")
	}
}

func TestGesture_UpFarFromDownDoesNotCommit(t *testing.T) {
	g := NewGesture(DefaultDragThreshold)
	// The move that crossed the threshold was never seen.
	g.Down(Point{100, 100})
	if g.Up(Point{130, 100}) {
		t.Fatalf("release past the threshold committed")
	}
	g.Down(Point{100, 100})
	if !g.Up(Point{103, 104}) {
		t.Fatalf("release inside the threshold should commit")
	}
}
