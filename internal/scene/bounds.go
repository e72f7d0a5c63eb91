package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis-aligned box in world space.
type Box struct {
	Min, Max mgl64.Vec3
}

func CenteredBox(center mgl64.Vec3, size float64) Box {
	h := size / 2
	half := mgl64.Vec3{h, h, h}
	return Box{Min: center.Sub(half), Max: center.Add(half)}
}

func (b Box) Center() mgl64.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }

// Intersect runs the slab test and returns the entry distance along dir.
// Hits behind the origin are misses; an origin inside the box hits at 0.
func (b Box) Intersect(origin, dir mgl64.Vec3) (float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (b.Min[i] - origin[i]) * inv
		t2 := (b.Max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}
