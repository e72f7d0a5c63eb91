package grid

import "math"

// Model holds the occupancy of one pallet. It is not safe for concurrent use;
// the editor loop owns it.
type Model struct {
	dims Dimensions
	occ  Occupancy
}

func NewModel(d Dimensions, occ Occupancy) *Model {
	m := &Model{dims: d, occ: Occupancy{}}
	m.ReplaceAll(occ)
	return m
}

func (m *Model) Dimensions() Dimensions { return m.dims }

// Has reports whether c is occupied. Out-of-range coordinates are never occupied.
func (m *Model) Has(c Coord) bool {
	if !m.dims.InBounds(c) {
		return false
	}
	return m.occ.Has(c)
}

// ReplaceAll installs occ as-is, without checking support. Coordinates outside
// the grid are dropped and counted.
func (m *Model) ReplaceAll(occ Occupancy) (dropped int) {
	next := make(Occupancy, len(occ))
	for c := range occ {
		if !m.dims.InBounds(c) {
			dropped++
			continue
		}
		next[c] = struct{}{}
	}
	m.occ = next
	return dropped
}

// Set installs a set produced by Add or Remove. The model takes ownership.
func (m *Model) Set(occ Occupancy) {
	if occ == nil {
		occ = Occupancy{}
	}
	m.occ = occ
}

// Occupancy returns a copy of the current set.
func (m *Model) Occupancy() Occupancy { return m.occ.Clone() }

// View returns the live set for read-only use by Add/Remove.
func (m *Model) View() Occupancy { return m.occ }

func (m *Model) Present() int { return len(m.occ) }

func (m *Model) Capacity() int { return m.dims.Capacity() }

// FillRate is the occupied percentage rounded to one decimal.
func (m *Model) FillRate() float64 {
	return FillRate(len(m.occ), m.dims.Capacity())
}

func FillRate(present, capacity int) float64 {
	return math.Round(float64(present)/float64(capacity)*1000) / 10
}
