// Package scene keeps one pickable proxy per occupied carton slot.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"palletvox.app/internal/grid"
)

// CubeSize leaves a small gap between neighbouring cartons.
const CubeSize = 0.9

type PartKind int

const (
	PartBody PartKind = iota + 1
	PartEdges
)

// Part is one drawable piece of a proxy. Owner names the proxy directly so a
// hit on any part resolves without walking up a hierarchy.
type Part struct {
	Kind     PartKind
	Owner    grid.Key
	Bounds   Box
	Pickable bool
}

type Proxy struct {
	Coord       grid.Coord
	Key         grid.Key
	Present     bool
	Position    mgl64.Vec3
	Color       colorful.Color
	Highlighted bool
	Parts       []Part
}

// DisplayColor is the colour to draw with, taking the highlight into account.
func (p *Proxy) DisplayColor(r Ramp) colorful.Color {
	if p.Highlighted {
		return r.Hover
	}
	return p.Color
}

// Opacity mirrors the translucent cartons: solid only while highlighted.
func (p *Proxy) Opacity() float64 {
	if p.Highlighted {
		return 1
	}
	return 0.9
}

// WorldPosition maps grid axes to world axes: grid z (stacking level) is world
// up, grid y is world depth.
func WorldPosition(c grid.Coord) mgl64.Vec3 {
	return mgl64.Vec3{float64(c.X), float64(c.Z), float64(c.Y)}
}

// NewCubeProxy builds the proxy for one slot, positioned in world space.
func NewCubeProxy(c grid.Coord, present bool, ramp Ramp, height int) Proxy {
	pos := WorldPosition(c)
	key := c.Key()
	box := CenteredBox(pos, CubeSize)
	return Proxy{
		Coord:    c,
		Key:      key,
		Present:  present,
		Position: pos,
		Color:    ramp.Level(c.Z, height),
		Parts: []Part{
			{Kind: PartBody, Owner: key, Bounds: box, Pickable: true},
			{Kind: PartEdges, Owner: key, Bounds: box},
		},
	}
}

// Registry is an arena of proxies plus a key index. Rebuild replaces
// everything; it is not diffed.
type Registry struct {
	ramp  Ramp
	dims  grid.Dimensions
	arena []Proxy
	index map[grid.Key]int

	highlighted grid.Key
}

func NewRegistry(ramp Ramp) *Registry {
	return &Registry{ramp: ramp, index: map[grid.Key]int{}}
}

func (r *Registry) Ramp() Ramp { return r.ramp }

func (r *Registry) Rebuild(occ grid.Occupancy, d grid.Dimensions) {
	r.dims = d
	r.highlighted = ""
	r.arena = make([]Proxy, 0, occ.Len())
	r.index = make(map[grid.Key]int, occ.Len())
	for _, c := range occ.Sorted() {
		r.index[c.Key()] = len(r.arena)
		r.arena = append(r.arena, NewCubeProxy(c, true, r.ramp, d.Height))
	}
}

func (r *Registry) Len() int { return len(r.arena) }

func (r *Registry) Dimensions() grid.Dimensions { return r.dims }

// Enumerate returns the current proxies in key order. The pointers stay valid
// until the next Rebuild.
func (r *Registry) Enumerate() []*Proxy {
	out := make([]*Proxy, len(r.arena))
	for i := range r.arena {
		out[i] = &r.arena[i]
	}
	return out
}

func (r *Registry) Lookup(c grid.Coord) (*Proxy, bool) {
	return r.ByKey(c.Key())
}

func (r *Registry) ByKey(k grid.Key) (*Proxy, bool) {
	i, ok := r.index[k]
	if !ok {
		return nil, false
	}
	return &r.arena[i], true
}

// SetHighlight turns the highlight for k on or off. At most one proxy is
// highlighted; turning on a new one clears the previous.
func (r *Registry) SetHighlight(k grid.Key, on bool) {
	if on {
		if r.highlighted == k {
			return
		}
		r.clearHighlight()
		if p, ok := r.ByKey(k); ok {
			p.Highlighted = true
			r.highlighted = k
		}
		return
	}
	if r.highlighted == k {
		r.clearHighlight()
	}
}

func (r *Registry) Highlighted() (grid.Key, bool) {
	return r.highlighted, r.highlighted != ""
}

func (r *Registry) clearHighlight() {
	if p, ok := r.ByKey(r.highlighted); ok {
		p.Highlighted = false
	}
	r.highlighted = ""
}
