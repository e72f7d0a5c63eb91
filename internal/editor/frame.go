package editor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"palletvox.app/internal/camera"
	"palletvox.app/internal/grid"
	"palletvox.app/internal/picker"
	"palletvox.app/internal/stats"
)

// Frame is an immutable copy of what the session shows. Readers on other
// goroutines only ever see Frames, never the session itself.
type Frame struct {
	Seq        uint64
	PaletteID  string
	Name       string
	Dimensions grid.Dimensions
	Stats      stats.Stats

	Transform camera.Transform
	Rect      picker.Rect
	View      camera.View

	Cubes []FrameCube
	Edge  colorful.Color

	Hover      grid.Key
	Confirming bool
	// Occupancy is the RLE form (encoding.EncodeOccupancy) for observers.
	Occupancy string
}

type FrameCube struct {
	Coord       grid.Coord
	Key         grid.Key
	Position    mgl64.Vec3
	Color       colorful.Color
	Opacity     float64
	Highlighted bool
}
