package grid

// Result describes what a single-cell edit did.
type Result struct {
	Changed bool
	// Removed counts cells actually deleted by a cascade remove.
	Removed int
}

// Remove deletes c and every cell above it in the same column. The input set
// is not modified. Out-of-range coordinates leave the set unchanged.
func Remove(occ Occupancy, c Coord, d Dimensions) (Occupancy, Result) {
	if !d.InBounds(c) {
		return occ, Result{}
	}
	var res Result
	for h := c.Z; h < d.Height; h++ {
		if occ.Has(Coord{X: c.X, Y: c.Y, Z: h}) {
			res.Removed++
		}
	}
	if res.Removed == 0 {
		return occ, res
	}
	out := make(Occupancy, len(occ)-res.Removed)
	for k := range occ {
		if k.X == c.X && k.Y == c.Y && k.Z >= c.Z {
			continue
		}
		out[k] = struct{}{}
	}
	res.Changed = true
	return out, res
}

// Add occupies c if it rests on the deck or on an occupied cell. Anything else
// (already present, unsupported, out of range) returns the set unchanged.
func Add(occ Occupancy, c Coord, d Dimensions) (Occupancy, Result) {
	if !d.InBounds(c) || occ.Has(c) {
		return occ, Result{}
	}
	if c.Z > 0 && !occ.Has(c.Below()) {
		return occ, Result{}
	}
	out := occ.Clone()
	out[c] = struct{}{}
	return out, Result{Changed: true}
}

// Supported reports whether every occupied cell above the deck has a cell
// beneath it. Bulk loads may violate this; edits never introduce a violation.
func Supported(occ Occupancy) bool {
	for c := range occ {
		if c.Z > 0 && !occ.Has(c.Below()) {
			return false
		}
	}
	return true
}
