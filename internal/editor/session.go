// Package editor wires the grid, scene, picker and camera into one editing
// session and runs it on a single goroutine.
package editor

import (
	"io"
	"log"
	"sync/atomic"
	"time"

	"palletvox.app/internal/camera"
	"palletvox.app/internal/encoding"
	"palletvox.app/internal/grid"
	editlog "palletvox.app/internal/persistence/log"
	"palletvox.app/internal/persistence/store"
	"palletvox.app/internal/picker"
	"palletvox.app/internal/scene"
	"palletvox.app/internal/stats"
)

// Journal records operator edits. *editlog.EditLogger satisfies it.
type Journal interface {
	WriteEdit(e editlog.EditEntry) error
}

type Config struct {
	Camera        camera.Params
	Ramp          scene.Ramp
	DragThreshold float64
	ConfirmWindow time.Duration

	Journal Journal
	Logger  *log.Logger
	Now     func() time.Time
	// OnChange is called on the session goroutine after each published frame.
	OnChange func(*Frame)
}

// Session is one palette open for editing. It is not safe for concurrent use;
// Loop serializes access. Frame is the exception and may be read anywhere.
type Session struct {
	cfg Config
	log *log.Logger

	palette store.Palette
	model   *grid.Model
	reg     *scene.Registry
	orbit   *camera.Orbit
	gesture *picker.Gesture
	confirm *ConfirmGate
	rect    picker.Rect
	view    camera.View
	stats   stats.Stats

	seq   uint64
	frame atomic.Pointer[Frame]
}

func NewSession(p store.Palette, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Camera == (camera.Params{}) {
		cfg.Camera = camera.DefaultParams()
	}
	if cfg.Ramp == (scene.Ramp{}) {
		cfg.Ramp = scene.DefaultRamp()
	}
	s := &Session{
		cfg:     cfg,
		log:     cfg.Logger,
		palette: p.Clone(),
		model:   grid.NewModel(p.Dimensions, nil),
		reg:     scene.NewRegistry(cfg.Ramp),
		orbit:   camera.NewOrbit(cfg.Camera),
		gesture: picker.NewGesture(cfg.DragThreshold),
		confirm: NewConfirmGate(cfg.ConfirmWindow),
		rect:    picker.Rect{Width: 800, Height: 600},
		view:    camera.ViewIso,
	}
	if dropped := s.model.ReplaceAll(p.Cubes); dropped > 0 {
		s.log.Printf("palette %s: dropped %d cubes outside %v", p.ID, dropped, p.Dimensions)
	}
	s.rebuild()
	return s
}

// Palette returns a copy of the palette as currently edited.
func (s *Session) Palette() store.Palette {
	p := s.palette.Clone()
	p.Cubes = s.model.Occupancy()
	p.Stats = s.stats
	return p
}

func (s *Session) Stats() stats.Stats       { return s.stats }
func (s *Session) Model() *grid.Model        { return s.model }
func (s *Session) Registry() *scene.Registry { return s.reg }
func (s *Session) Orbit() *camera.Orbit      { return s.orbit }
func (s *Session) Gesture() *picker.Gesture  { return s.gesture }
func (s *Session) Rect() picker.Rect         { return s.rect }

// Frame returns the latest published frame. Safe from any goroutine.
func (s *Session) Frame() *Frame { return s.frame.Load() }

func (s *Session) Transform() camera.Transform {
	return s.orbit.Transform(s.model.Dimensions(), s.rect.Aspect())
}

// Resize sets the viewport rectangle used for picking and projection.
func (s *Session) Resize(r picker.Rect) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	s.rect = r
	s.publish()
}

func (s *Session) PointerDown(p picker.Point) {
	if !s.rect.Contains(p) {
		return
	}
	s.gesture.Down(p)
}

func (s *Session) PointerMove(p picker.Point, b picker.Buttons) {
	act := s.gesture.Move(p, b)
	switch act.Kind {
	case picker.ActOrbit:
		s.orbit.Drag(act.DX, act.DY)
		s.view = ""
		s.publish()
	case picker.ActHover:
		s.hover(p)
	}
}

// PointerUp ends a press. A press that never became a drag edits the cell
// under the pointer: a present carton is removed with everything above it.
func (s *Session) PointerUp(p picker.Point) {
	if !s.gesture.Up(p) {
		return
	}
	hit, ok := picker.Resolve(p, s.rect, s.Transform(), s.reg)
	if !ok {
		return
	}
	if hit.Present {
		s.Remove(hit.Coord)
	} else {
		s.Add(hit.Coord)
	}
}

// PointerLeave cancels any press and clears the hover highlight.
func (s *Session) PointerLeave() {
	s.gesture.Cancel()
	if k, ok := s.reg.Highlighted(); ok {
		s.reg.SetHighlight(k, false)
		s.publish()
	}
}

func (s *Session) hover(p picker.Point) {
	prev, had := s.reg.Highlighted()
	hit, ok := picker.Resolve(p, s.rect, s.Transform(), s.reg)
	switch {
	case ok && (!had || prev != hit.Key):
		s.reg.SetHighlight(hit.Key, true)
		s.publish()
	case !ok && had:
		s.reg.SetHighlight(prev, false)
		s.publish()
	}
}

func (s *Session) Remove(c grid.Coord) grid.Result {
	occ, res := grid.Remove(s.model.View(), c, s.model.Dimensions())
	s.apply(occ, res, editlog.OpRemove, c)
	return res
}

func (s *Session) Add(c grid.Coord) grid.Result {
	occ, res := grid.Add(s.model.View(), c, s.model.Dimensions())
	s.apply(occ, res, editlog.OpAdd, c)
	return res
}

// AddAbove stacks a carton on the highlighted one.
func (s *Session) AddAbove() grid.Result {
	k, ok := s.reg.Highlighted()
	if !ok {
		return grid.Result{}
	}
	c, err := grid.ParseKey(k)
	if err != nil {
		return grid.Result{}
	}
	return s.Add(grid.Coord{X: c.X, Y: c.Y, Z: c.Z + 1})
}

// Fill occupies every cell.
func (s *Session) Fill() bool {
	d := s.model.Dimensions()
	if s.model.Present() == d.Capacity() {
		return false
	}
	s.confirm.Reset()
	s.apply(grid.FillAll(d), grid.Result{Changed: true}, editlog.OpFill, grid.Coord{})
	return true
}

// Empty clears the grid on the second call inside the confirm window.
func (s *Session) Empty() (done bool) {
	if !s.confirm.Press(s.cfg.Now()) {
		s.publish()
		return false
	}
	if s.model.Present() == 0 {
		s.publish()
		return true
	}
	s.apply(grid.Empty(), grid.Result{Changed: true, Removed: s.model.Present()}, editlog.OpEmpty, grid.Coord{})
	return true
}

func (s *Session) SetView(v camera.View) error {
	if err := s.orbit.SetPreset(v); err != nil {
		return err
	}
	s.view = v
	s.publish()
	return nil
}

func (s *Session) ResetView() {
	s.orbit.Reset()
	s.view = camera.ViewIso
	s.publish()
}

func (s *Session) Zoom(direction float64) {
	s.orbit.ZoomStep(direction)
	s.publish()
}

// SetExtra sets the loose carton count; negative values clamp to zero.
func (s *Session) SetExtra(n int) {
	if n < 0 {
		n = 0
	}
	if n == s.palette.ExtraCartons {
		return
	}
	s.palette.ExtraCartons = n
	s.stats = stats.Compute(s.model.View(), s.model.Dimensions(), n)
	s.publish()
}

func (s *Session) Rename(name string) {
	if name == "" || name == s.palette.Name {
		return
	}
	s.palette.Name = name
	s.publish()
}

func (s *Session) apply(occ grid.Occupancy, res grid.Result, op editlog.Op, c grid.Coord) {
	if res.Changed {
		s.model.Set(occ)
		s.rebuild()
	}
	if s.cfg.Journal == nil {
		return
	}
	e := editlog.EditEntry{
		AtMs:      s.cfg.Now().UTC().UnixMilli(),
		PaletteID: s.palette.ID,
		Op:        op,
		X:         c.X,
		Y:         c.Y,
		Z:         c.Z,
		Changed:   res.Changed,
		Present:   s.model.Present(),
	}
	if err := s.cfg.Journal.WriteEdit(e); err != nil {
		s.log.Printf("journal: %v", err)
	}
}

func (s *Session) rebuild() {
	s.reg.Rebuild(s.model.View(), s.model.Dimensions())
	s.stats = stats.Compute(s.model.View(), s.model.Dimensions(), s.palette.ExtraCartons)
	s.publish()
}

func (s *Session) publish() {
	s.seq++
	d := s.model.Dimensions()
	ramp := s.reg.Ramp()
	proxies := s.reg.Enumerate()
	f := &Frame{
		Seq:        s.seq,
		PaletteID:  s.palette.ID,
		Name:       s.palette.Name,
		Dimensions: d,
		Stats:      s.stats,
		Transform:  s.Transform(),
		Rect:       s.rect,
		View:       s.view,
		Cubes:      make([]FrameCube, len(proxies)),
		Edge:       ramp.Edge,
		Confirming: s.confirm.Confirming(s.cfg.Now()),
		Occupancy:  encoding.EncodeOccupancy(d, s.model.View()),
	}
	if k, ok := s.reg.Highlighted(); ok {
		f.Hover = k
	}
	for i, p := range proxies {
		f.Cubes[i] = FrameCube{
			Coord:       p.Coord,
			Key:         p.Key,
			Position:    p.Position,
			Color:       p.DisplayColor(ramp),
			Opacity:     p.Opacity(),
			Highlighted: p.Highlighted,
		}
	}
	s.frame.Store(f)
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(f)
	}
}

// ConfirmRemaining is how long a pending empty confirmation stays open.
func (s *Session) ConfirmRemaining() time.Duration {
	return s.confirm.Remaining(s.cfg.Now())
}

// ExpireConfirm republishes once a pending empty confirmation has lapsed.
func (s *Session) ExpireConfirm() {
	if f := s.Frame(); f != nil && f.Confirming && !s.confirm.Confirming(s.cfg.Now()) {
		s.confirm.Reset()
		s.publish()
	}
}
