package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"

	"palletvox.app/internal/grid"
)

func TestRegistry_RebuildOneProxyPerCell(t *testing.T) {
	d := grid.Dimensions{Length: 3, Width: 2, Height: 4}
	r := NewRegistry(DefaultRamp())
	occ := grid.FillAll(d)
	r.Rebuild(occ, d)
	if r.Len() != occ.Len() {
		t.Fatalf("len=%d want %d", r.Len(), occ.Len())
	}
	for _, p := range r.Enumerate() {
		if !occ.Has(p.Coord) || !p.Present {
			t.Fatalf("unexpected proxy %v", p.Coord)
		}
		for _, part := range p.Parts {
			if part.Owner != p.Key {
				t.Fatalf("part of %v owned by %v", p.Key, part.Owner)
			}
		}
	}

	smaller, _ := grid.Remove(occ, grid.Coord{X: 0, Y: 0, Z: 0}, d)
	r.Rebuild(smaller, d)
	if r.Len() != smaller.Len() {
		t.Fatalf("after rebuild len=%d want %d", r.Len(), smaller.Len())
	}
	if _, ok := r.Lookup(grid.Coord{X: 0, Y: 0, Z: 2}); ok {
		t.Fatalf("stale proxy survived rebuild")
	}
	if _, ok := r.Lookup(grid.Coord{X: 2, Y: 1, Z: 3}); !ok {
		t.Fatalf("missing proxy")
	}
}

func TestNewCubeProxy_SwapsDepthAndUp(t *testing.T) {
	p := NewCubeProxy(grid.Coord{X: 1, Y: 2, Z: 3}, true, DefaultRamp(), 4)
	if diff := cmp.Diff(mgl64.Vec3{1, 3, 2}, p.Position); diff != "" {
		t.Fatalf("position (-want +got):\n%s", diff)
	}
	body := p.Parts[0].Bounds
	if math.Abs(body.Max[0]-body.Min[0]-CubeSize) > 1e-9 {
		t.Fatalf("body size %v", body.Max[0]-body.Min[0])
	}
}

func TestRamp_LevelEndsAndMiddle(t *testing.T) {
	r := DefaultRamp()
	if got := r.Level(0, 4).Hex(); got != DefaultBottomHex {
		t.Fatalf("bottom=%s", got)
	}
	if got := r.Level(3, 4).Hex(); got != DefaultTopHex {
		t.Fatalf("top=%s", got)
	}
	single := r.Level(0, 1)
	mid := r.Bottom.BlendRgb(r.Top, 0.5)
	if single.DistanceRgb(mid) > 1e-9 {
		t.Fatalf("single level should use midpoint")
	}
}

func TestRegistry_SingleHighlight(t *testing.T) {
	d := grid.Dimensions{Length: 2, Width: 1, Height: 1}
	r := NewRegistry(DefaultRamp())
	r.Rebuild(grid.FillAll(d), d)

	a := grid.Coord{X: 0, Y: 0, Z: 0}.Key()
	b := grid.Coord{X: 1, Y: 0, Z: 0}.Key()
	r.SetHighlight(a, true)
	r.SetHighlight(b, true)
	pa, _ := r.ByKey(a)
	pb, _ := r.ByKey(b)
	if pa.Highlighted || !pb.Highlighted {
		t.Fatalf("highlight should move: a=%v b=%v", pa.Highlighted, pb.Highlighted)
	}
	if pb.DisplayColor(r.Ramp()) != r.Ramp().Hover || pb.Opacity() != 1 {
		t.Fatalf("highlighted proxy should use hover colour")
	}
	r.SetHighlight(b, false)
	if _, ok := r.Highlighted(); ok || pb.Highlighted {
		t.Fatalf("highlight not cleared")
	}
	if pb.DisplayColor(r.Ramp()) != pb.Color || pb.Opacity() != 0.9 {
		t.Fatalf("level colour not restored")
	}
}

func TestBox_Intersect(t *testing.T) {
	b := CenteredBox(mgl64.Vec3{0, 0, 0}, 1)
	if tHit, ok := b.Intersect(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 0, 0}); !ok || math.Abs(tHit-4.5) > 1e-9 {
		t.Fatalf("front hit t=%v ok=%v", tHit, ok)
	}
	if _, ok := b.Intersect(mgl64.Vec3{-5, 2, 0}, mgl64.Vec3{1, 0, 0}); ok {
		t.Fatalf("parallel miss reported hit")
	}
	if _, ok := b.Intersect(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 0, 0}); ok {
		t.Fatalf("box behind origin reported hit")
	}
	if tHit, ok := b.Intersect(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0}); !ok || tHit != 0 {
		t.Fatalf("inside origin t=%v ok=%v", tHit, ok)
	}
}
