package grid

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Occupancy is the set of occupied slots. The zero value is an empty set that
// must not be written to; use NewOccupancy or Clone before mutating.
type Occupancy map[Coord]struct{}

func NewOccupancy(cs ...Coord) Occupancy {
	o := make(Occupancy, len(cs))
	for _, c := range cs {
		o[c] = struct{}{}
	}
	return o
}

// FillAll returns every coordinate of d.
func FillAll(d Dimensions) Occupancy {
	o := make(Occupancy, d.Capacity())
	for x := 0; x < d.Length; x++ {
		for y := 0; y < d.Width; y++ {
			for z := 0; z < d.Height; z++ {
				o[Coord{X: x, Y: y, Z: z}] = struct{}{}
			}
		}
	}
	return o
}

func Empty() Occupancy { return Occupancy{} }

func (o Occupancy) Has(c Coord) bool {
	_, ok := o[c]
	return ok
}

func (o Occupancy) Len() int { return len(o) }

func (o Occupancy) Clone() Occupancy {
	out := make(Occupancy, len(o))
	for c := range o {
		out[c] = struct{}{}
	}
	return out
}

func (o Occupancy) Equal(other Occupancy) bool {
	if len(o) != len(other) {
		return false
	}
	for c := range o {
		if _, ok := other[c]; !ok {
			return false
		}
	}
	return true
}

// Sorted lists the set in Less order.
func (o Occupancy) Sorted() []Coord {
	out := make([]Coord, 0, len(o))
	for c := range o {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Keys lists canonical keys in Less order.
func (o Occupancy) Keys() []string {
	cs := o.Sorted()
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c.Key())
	}
	return out
}

// Digest is a stable content hash; equal sets give equal digests.
func (o Occupancy) Digest() string {
	h := sha256.New()
	for _, k := range o.Keys() {
		h.Write([]byte(k))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func FromKeys(keys []string) (Occupancy, error) {
	o := make(Occupancy, len(keys))
	for _, k := range keys {
		c, err := ParseKey(Key(k))
		if err != nil {
			return nil, err
		}
		o[c] = struct{}{}
	}
	return o, nil
}
