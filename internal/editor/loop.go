package editor

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"palletvox.app/internal/camera"
	"palletvox.app/internal/picker"
)

var ErrClosed = errors.New("editor loop closed")

// Event is one input applied to the session on the loop goroutine.
type Event interface {
	apply(s *Session)
}

type (
	PointerDown  struct{ At picker.Point }
	PointerUp    struct{ At picker.Point }
	PointerLeave struct{}
	Resize       struct{ Rect picker.Rect }
	FillAll      struct{}
	EmptyAll     struct{}
	AddAbove     struct{}
	SetView      struct{ View camera.View }
	ResetView    struct{}
	Zoom         struct{ Direction float64 }
	SetExtra     struct{ N int }
	AdjustExtra  struct{ Delta int }
	Rename       struct{ Name string }
)

type PointerMove struct {
	At      picker.Point
	Buttons picker.Buttons
}

func (e PointerDown) apply(s *Session) { s.PointerDown(e.At) }
func (e PointerMove) apply(s *Session) { s.PointerMove(e.At, e.Buttons) }
func (e PointerUp) apply(s *Session)   { s.PointerUp(e.At) }
func (PointerLeave) apply(s *Session)  { s.PointerLeave() }
func (e Resize) apply(s *Session)      { s.Resize(e.Rect) }
func (FillAll) apply(s *Session)       { s.Fill() }
func (EmptyAll) apply(s *Session)      { s.Empty() }
func (AddAbove) apply(s *Session)      { s.AddAbove() }
func (ResetView) apply(s *Session)     { s.ResetView() }
func (e Zoom) apply(s *Session)        { s.Zoom(e.Direction) }
func (e SetExtra) apply(s *Session)    { s.SetExtra(e.N) }
func (e AdjustExtra) apply(s *Session) { s.SetExtra(s.palette.ExtraCartons + e.Delta) }
func (e Rename) apply(s *Session)      { s.Rename(e.Name) }
func (e SetView) apply(s *Session) {
	if err := s.SetView(e.View); err != nil {
		s.log.Printf("view: %v", err)
	}
}

// Loop owns a Session: input events and the autosave ticker are handled on the
// Run goroutine only.
type Loop struct {
	s        *Session
	saver    *AutoSaver
	interval time.Duration
	log      *log.Logger

	events chan Event
	done   chan struct{}
}

func NewLoop(s *Session, saver *AutoSaver, interval time.Duration, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if saver != nil {
		saver.Prime(s.Palette())
	}
	return &Loop{
		s:        s,
		saver:    saver,
		interval: interval,
		log:      logger,
		events:   make(chan Event, 256),
		done:     make(chan struct{}),
	}
}

// Session is for reading frames; do not call its mutators from outside Run.
func (l *Loop) Session() *Session { return l.s }

// Submit queues ev for the loop. It blocks while the queue is full.
func (l *Loop) Submit(ctx context.Context, ev Event) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.events <- ev:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues ev unless the queue is full. Pointer moves use it so a
// burst of motion never stalls the input reader.
func (l *Loop) TrySubmit(ev Event) bool {
	select {
	case <-l.done:
		return false
	case l.events <- ev:
		return true
	default:
		return false
	}
}

// Run processes events until ctx is cancelled, then drains queued events and
// makes a final save.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	confirm := time.NewTimer(time.Hour)
	confirm.Stop()
	defer confirm.Stop()
	var expire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			l.drain()
			l.flush()
			return nil
		case ev := <-l.events:
			ev.apply(l.s)
			expire = l.armConfirm(confirm)
		case <-expire:
			l.s.ExpireConfirm()
			expire = l.armConfirm(confirm)
		case <-ticker.C:
			l.s.ExpireConfirm()
			l.save(ctx)
		}
	}
}

// armConfirm points t at the end of a pending empty confirmation so the
// banner clears on time. It returns nil when nothing is pending.
func (l *Loop) armConfirm(t *time.Timer) <-chan time.Time {
	left := l.s.ConfirmRemaining()
	if left <= 0 {
		t.Stop()
		return nil
	}
	t.Reset(left)
	return t.C
}

func (l *Loop) drain() {
	for {
		select {
		case ev := <-l.events:
			ev.apply(l.s)
		default:
			return
		}
	}
}

func (l *Loop) save(ctx context.Context) {
	if l.saver == nil {
		return
	}
	if saved, err := l.saver.MaybeSave(ctx, l.s.Palette()); saved && err == nil {
		l.log.Printf("saved palette %s (%s)", l.s.palette.ID, l.s.Stats().Badge())
	}
}

func (l *Loop) flush() {
	// The run context is already cancelled; the final save gets its own.
	l.save(context.Background())
}
