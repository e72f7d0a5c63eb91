package picker

import (
	"math"

	"palletvox.app/internal/camera"
	"palletvox.app/internal/grid"
	"palletvox.app/internal/scene"
)

// Rect is the viewport in the same pixel space as pointer positions.
type Rect struct {
	Left, Top, Width, Height float64
}

func (r Rect) Aspect() float64 {
	if r.Height <= 0 {
		return 1
	}
	return r.Width / r.Height
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width && p.Y >= r.Top && p.Y < r.Top+r.Height
}

// NDC converts a pointer position to normalized device coordinates (y up).
func (r Rect) NDC(p Point) (x, y float64) {
	x = (p.X-r.Left)/r.Width*2 - 1
	y = -(p.Y-r.Top)/r.Height*2 + 1
	return x, y
}

type Hit struct {
	Coord    grid.Coord
	Key      grid.Key
	Present  bool
	Distance float64
}

// Source is what the resolver casts against. *scene.Registry satisfies it.
type Source interface {
	Enumerate() []*scene.Proxy
	ByKey(k grid.Key) (*scene.Proxy, bool)
}

// Resolve casts a ray through p and returns the nearest proxy it hits.
func Resolve(p Point, rect Rect, tr camera.Transform, src Source) (Hit, bool) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return Hit{}, false
	}
	nx, ny := rect.NDC(p)
	origin, dir := tr.Ray(nx, ny)

	best := math.Inf(1)
	var owner grid.Key
	for _, proxy := range src.Enumerate() {
		for _, part := range proxy.Parts {
			if !part.Pickable {
				continue
			}
			d, ok := part.Bounds.Intersect(origin, dir)
			if ok && d < best {
				best = d
				owner = part.Owner
			}
		}
	}
	if owner == "" {
		return Hit{}, false
	}
	proxy, ok := src.ByKey(owner)
	if !ok {
		return Hit{}, false
	}
	return Hit{Coord: proxy.Coord, Key: proxy.Key, Present: proxy.Present, Distance: best}, true
}
