package editor

import (
	"context"
	"testing"
	"time"

	"palletvox.app/internal/grid"
	"palletvox.app/internal/picker"
)

func TestLoop_AppliesEventsAndFlushesOnCancel(t *testing.T) {
	d := grid.Dimensions{Length: 2, Width: 2, Height: 2}
	s := NewSession(fullPalette(d), Config{})
	fs := &fakeSaver{}
	// A long interval keeps the ticker out of the way; only the final flush saves.
	l := NewLoop(s, NewAutoSaver(fs, time.Second, nil), time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	rect := picker.Rect{Width: 800, Height: 600}
	p := centre(rect)
	for _, ev := range []Event{
		Resize{Rect: rect},
		PointerDown{At: p},
		PointerUp{At: p},
		AdjustExtra{Delta: 2},
	} {
		if err := l.Submit(ctx, ev); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if f := l.Session().Frame(); f != nil && f.Stats.Present == 7 && f.Stats.Extra == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("events not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return")
	}

	if fs.count() != 1 {
		t.Fatalf("saves=%d want 1", fs.count())
	}
	got := fs.saved[0]
	if got.Cubes.Len() != 7 || got.ExtraCartons != 2 {
		t.Fatalf("unexpected saved palette: cubes=%d extra=%d", got.Cubes.Len(), got.ExtraCartons)
	}
	if err := l.Submit(context.Background(), FillAll{}); err != ErrClosed {
		t.Fatalf("Submit after close: %v", err)
	}
}

func TestLoop_TickSavesOnlyChanges(t *testing.T) {
	d := grid.Dimensions{Length: 1, Width: 1, Height: 2}
	s := NewSession(fullPalette(d), Config{})
	fs := &fakeSaver{}
	l := NewLoop(s, NewAutoSaver(fs, time.Second, nil), 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if n := fs.count(); n != 0 {
		t.Fatalf("unchanged palette saved %d times", n)
	}
	if err := l.Submit(ctx, SetExtra{N: 1}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for fs.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("tick never saved the change")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if n := fs.count(); n != 1 {
		t.Fatalf("saves=%d want 1", n)
	}
}

func TestLoop_ConfirmBannerClearsAtWindowEnd(t *testing.T) {
	d := grid.Dimensions{Length: 2, Width: 1, Height: 1}
	s := NewSession(fullPalette(d), Config{ConfirmWindow: 40 * time.Millisecond})
	// The autosave tick never fires during the test.
	l := NewLoop(s, nil, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	if err := l.Submit(ctx, EmptyAll{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if f := l.Session().Frame(); f != nil && f.Confirming {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("confirmation never shown")
		}
		time.Sleep(2 * time.Millisecond)
	}
	for {
		f := l.Session().Frame()
		if !f.Confirming {
			if f.Stats.Present != 2 {
				t.Fatalf("expired confirmation emptied the grid: present=%d", f.Stats.Present)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("confirmation still shown after the window")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	<-done
}
