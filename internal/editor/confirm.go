package editor

import "time"

// ConfirmGate guards a destructive action behind a second press inside a
// window. It is idle until the first press, then confirming until deadline.
type ConfirmGate struct {
	window   time.Duration
	deadline time.Time
}

func NewConfirmGate(window time.Duration) *ConfirmGate {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &ConfirmGate{window: window}
}

// Press reports whether the action should run now. The first press arms the
// gate; a second press before the deadline fires it and resets.
func (g *ConfirmGate) Press(now time.Time) bool {
	if g.Confirming(now) {
		g.deadline = time.Time{}
		return true
	}
	g.deadline = now.Add(g.window)
	return false
}

func (g *ConfirmGate) Confirming(now time.Time) bool {
	return !g.deadline.IsZero() && now.Before(g.deadline)
}

// Remaining is the time left in the confirm window, or 0 when not confirming.
func (g *ConfirmGate) Remaining(now time.Time) time.Duration {
	if !g.Confirming(now) {
		return 0
	}
	return g.deadline.Sub(now)
}

func (g *ConfirmGate) Reset() { g.deadline = time.Time{} }
