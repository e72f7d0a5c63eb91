package grid

import "fmt"

// Dimensions is the size of a pallet grid in unit cells.
type Dimensions struct {
	Length int `json:"length" yaml:"length"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// AxisLimit is an inclusive range for one axis.
type AxisLimit struct {
	Min     int `yaml:"min"`
	Max     int `yaml:"max"`
	Default int `yaml:"default"`
}

type Limits struct {
	Length AxisLimit `yaml:"length"`
	Width  AxisLimit `yaml:"width"`
	Height AxisLimit `yaml:"height"`
}

func DefaultLimits() Limits {
	return Limits{
		Length: AxisLimit{Min: 1, Max: 50, Default: 5},
		Width:  AxisLimit{Min: 1, Max: 50, Default: 5},
		Height: AxisLimit{Min: 1, Max: 50, Default: 4},
	}
}

// Defaults returns the dimensions a new palette gets when none are requested.
func (l Limits) Defaults() Dimensions {
	return Dimensions{Length: l.Length.Default, Width: l.Width.Default, Height: l.Height.Default}
}

func (d Dimensions) Capacity() int { return d.Length * d.Width * d.Height }

func (d Dimensions) MaxAxis() int {
	m := d.Length
	if d.Width > m {
		m = d.Width
	}
	if d.Height > m {
		m = d.Height
	}
	return m
}

func (d Dimensions) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < d.Length &&
		c.Y >= 0 && c.Y < d.Width &&
		c.Z >= 0 && c.Z < d.Height
}

// Validate checks every axis against l.
func (d Dimensions) Validate(l Limits) error {
	check := func(name string, v int, lim AxisLimit) error {
		if v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
		if v < lim.Min || v > lim.Max {
			return fmt.Errorf("%s %d out of range [%d,%d]", name, v, lim.Min, lim.Max)
		}
		return nil
	}
	if err := check("length", d.Length, l.Length); err != nil {
		return err
	}
	if err := check("width", d.Width, l.Width); err != nil {
		return err
	}
	return check("height", d.Height, l.Height)
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%dx%d", d.Length, d.Width, d.Height)
}

// ParseDimensions reads the "LxWxH" form produced by String.
func ParseDimensions(s string) (Dimensions, error) {
	var d Dimensions
	if _, err := fmt.Sscanf(s, "%dx%dx%d", &d.Length, &d.Width, &d.Height); err != nil {
		return Dimensions{}, fmt.Errorf("dimensions %q: want LxWxH: %w", s, err)
	}
	return d, nil
}
