// Package render draws published editor frames on a fixed schedule.
package render

import (
	"sync"
	"sync/atomic"
	"time"

	"palletvox.app/internal/editor"
)

// Source hands out the latest frame. *editor.Session satisfies it.
type Source interface {
	Frame() *editor.Frame
}

type Drawer interface {
	Draw(f *editor.Frame)
}

// Scheduler redraws at most fps times a second, and only when a new frame was
// published or Invalidate was called.
type Scheduler struct {
	src      Source
	dst      Drawer
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	lastSeq uint64
	dirty   atomic.Bool
	draws   atomic.Int64
}

func NewScheduler(src Source, dst Drawer, fps int) *Scheduler {
	if fps <= 0 {
		fps = 30
	}
	return &Scheduler{src: src, dst: dst, interval: time.Second / time.Duration(fps)}
}

// Start begins ticking. Calling it on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.dirty.Store(true)
	s.wg.Add(1)
	go s.run(s.stop)
}

// Stop halts ticking and waits for an in-flight draw to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	s.wg.Wait()
}

// Invalidate forces a redraw on the next tick, e.g. after a terminal resize.
func (s *Scheduler) Invalidate() { s.dirty.Store(true) }

// Draws counts completed draws.
func (s *Scheduler) Draws() int64 { return s.draws.Load() }

func (s *Scheduler) run(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	f := s.src.Frame()
	if f == nil {
		return
	}
	dirty := s.dirty.Swap(false)
	if f.Seq == s.lastSeq && !dirty {
		return
	}
	s.lastSeq = f.Seq
	s.dst.Draw(f)
	s.draws.Add(1)
}
