package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"palletvox.app/internal/grid"
)

// Cells are linearised column by column: index = (x*W + y)*H + z.
func cellIndex(d grid.Dimensions, c grid.Coord) int {
	return (c.X*d.Width+c.Y)*d.Height + c.Z
}

func cellAt(d grid.Dimensions, i int) grid.Coord {
	z := i % d.Height
	i /= d.Height
	return grid.Coord{X: i / d.Width, Y: i % d.Width, Z: z}
}

// EncodeOccupancy encodes occ as base64(varint runs). Runs alternate between
// empty and occupied cells, starting with empty; a leading zero-length run
// marks a grid whose first cell is occupied.
func EncodeOccupancy(d grid.Dimensions, occ grid.Occupancy) string {
	n := d.Capacity()
	bits := make([]bool, n)
	for c := range occ {
		if d.InBounds(c) {
			bits[cellIndex(d, c)] = true
		}
	}

	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	cur := false
	run := uint64(0)
	for _, b := range bits {
		if b != cur {
			m := binary.PutUvarint(tmp[:], run)
			buf.Write(tmp[:m])
			cur = b
			run = 0
		}
		run++
	}
	m := binary.PutUvarint(tmp[:], run)
	buf.Write(tmp[:m])

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeOccupancy(d grid.Dimensions, b64 string) (grid.Occupancy, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	n := d.Capacity()
	occ := grid.Occupancy{}
	pos := 0
	cur := false
	for i := 0; i < len(raw); {
		run, m := binary.Uvarint(raw[i:])
		if m <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += m
		if run > uint64(n-pos) {
			return nil, fmt.Errorf("run of %d overflows grid %v at cell %d", run, d, pos)
		}
		if cur {
			for k := 0; k < int(run); k++ {
				occ[cellAt(d, pos+k)] = struct{}{}
			}
		}
		pos += int(run)
		cur = !cur
	}
	if pos != n {
		return nil, fmt.Errorf("runs cover %d cells, grid %v has %d", pos, d, n)
	}
	return occ, nil
}
