package camera

import (
	"github.com/go-gl/mathgl/mgl64"

	"palletvox.app/internal/grid"
)

// Transform is a frozen camera: enough to project points and cast pick rays.
type Transform struct {
	Eye    mgl64.Vec3
	Target mgl64.Vec3
	View   mgl64.Mat4
	Proj   mgl64.Mat4

	inv mgl64.Mat4
}

func (o *Orbit) Transform(d grid.Dimensions, aspect float64) Transform {
	if aspect <= 0 {
		aspect = 1
	}
	eye, target := o.Eye(d)
	view := mgl64.LookAtV(eye, target, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(mgl64.DegToRad(o.p.FovDeg), aspect, o.p.Near, o.p.Far)
	return Transform{
		Eye:    eye,
		Target: target,
		View:   view,
		Proj:   proj,
		inv:    proj.Mul4(view).Inv(),
	}
}

// Project maps a world point to normalized device coordinates. ok is false for
// points behind the camera.
func (t Transform) Project(p mgl64.Vec3) (ndc mgl64.Vec3, ok bool) {
	clip := t.Proj.Mul4(t.View).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl64.Vec3{}, false
	}
	return clip.Vec3().Mul(1 / clip.W()), true
}

// Ray returns the pick ray through the given NDC point: from the eye towards
// the matching point on the far plane.
func (t Transform) Ray(ndcX, ndcY float64) (origin, dir mgl64.Vec3) {
	far := t.inv.Mul4x1(mgl64.Vec4{ndcX, ndcY, 1, 1})
	p := far.Vec3().Mul(1 / far.W())
	return t.Eye, p.Sub(t.Eye).Normalize()
}
