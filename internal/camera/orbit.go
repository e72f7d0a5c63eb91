// Package camera implements the orbiting view around a pallet.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"palletvox.app/internal/grid"
)

var ErrUnknownView = errors.New("unknown view")

type View string

const (
	ViewFront View = "front"
	ViewSide  View = "side"
	ViewTop   View = "top"
	ViewIso   View = "iso"
)

// phiMargin keeps the polar angle off the poles, where LookAt degenerates.
const phiMargin = 0.1

var presets = map[View][2]float64{
	ViewFront: {0, math.Pi / 2},
	ViewSide:  {math.Pi / 2, math.Pi / 2},
	ViewTop:   {0, phiMargin},
	ViewIso:   {math.Pi / 4, math.Pi / 4},
}

type Params struct {
	Sensitivity    float64 `yaml:"sensitivity"`
	ZoomInFactor   float64 `yaml:"zoom_in_factor"`
	ZoomOutFactor  float64 `yaml:"zoom_out_factor"`
	MinZoom        float64 `yaml:"min_zoom"`
	MaxZoom        float64 `yaml:"max_zoom"`
	DistanceFactor float64 `yaml:"distance_factor"`
	FovDeg         float64 `yaml:"fov_deg"`
	Near           float64 `yaml:"near"`
	Far            float64 `yaml:"far"`
}

func DefaultParams() Params {
	return Params{
		Sensitivity:    0.01,
		ZoomInFactor:   0.9,
		ZoomOutFactor:  1.1,
		MinZoom:        0.2,
		MaxZoom:        5,
		DistanceFactor: 2.5,
		FovDeg:         50,
		Near:           0.1,
		Far:            1000,
	}
}

// Orbit is the spherical camera state. Theta is the azimuth, Phi the polar
// angle from world up. Zoom scales the base distance.
type Orbit struct {
	Theta float64
	Phi   float64
	Zoom  float64

	p Params
}

func NewOrbit(p Params) *Orbit {
	o := &Orbit{p: p, Zoom: 1}
	o.Reset()
	return o
}

func (o *Orbit) Params() Params { return o.p }

func (o *Orbit) Drag(dx, dy float64) {
	o.Theta -= dx * o.p.Sensitivity
	o.Phi = clamp(o.Phi+dy*o.p.Sensitivity, phiMargin, math.Pi-phiMargin)
}

func (o *Orbit) SetPreset(v View) error {
	a, ok := presets[v]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownView, v)
	}
	o.Theta, o.Phi = a[0], a[1]
	return nil
}

func (o *Orbit) Reset() { _ = o.SetPreset(ViewIso) }

// ZoomStep moves the camera out for direction > 0 and in otherwise.
func (o *Orbit) ZoomStep(direction float64) {
	f := o.p.ZoomInFactor
	if direction > 0 {
		f = o.p.ZoomOutFactor
	}
	o.Zoom = clamp(o.Zoom*f, o.p.MinZoom, o.p.MaxZoom)
}

// Target is the geometric centre of the grid in world space.
func Target(d grid.Dimensions) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(d.Length-1) / 2,
		float64(d.Height-1) / 2,
		float64(d.Width-1) / 2,
	}
}

func (o *Orbit) Distance(d grid.Dimensions) float64 {
	return float64(d.MaxAxis()) * o.p.DistanceFactor * o.Zoom
}

// Eye returns the camera position and the point it looks at.
func (o *Orbit) Eye(d grid.Dimensions) (eye, target mgl64.Vec3) {
	target = Target(d)
	r := o.Distance(d)
	sp, cp := math.Sincos(o.Phi)
	st, ct := math.Sincos(o.Theta)
	eye = target.Add(mgl64.Vec3{r * sp * ct, r * cp, r * sp * st})
	return eye, target
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
