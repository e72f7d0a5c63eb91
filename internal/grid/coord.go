package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadKey = errors.New("bad coordinate key")

// Coord addresses one carton slot. Z is the stacking level, 0 on the pallet deck.
type Coord struct {
	X, Y, Z int
}

// Key is the canonical text form of a Coord ("x,y,z").
type Key string

func (c Coord) Key() Key {
	return Key(strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y) + "," + strconv.Itoa(c.Z))
}

func (c Coord) Below() Coord { return Coord{X: c.X, Y: c.Y, Z: c.Z - 1} }

func (c Coord) String() string { return string(c.Key()) }

func ParseKey(k Key) (Coord, error) {
	parts := strings.Split(string(k), ",")
	if len(parts) != 3 {
		return Coord{}, fmt.Errorf("%w: %q", ErrBadKey, k)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Coord{}, fmt.Errorf("%w: %q", ErrBadKey, k)
		}
		v[i] = n
	}
	return Coord{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Less orders coordinates column by column (x, then y, then z).
func Less(a, b Coord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
