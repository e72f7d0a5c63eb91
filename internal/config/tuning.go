package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"palletvox.app/internal/camera"
	"palletvox.app/internal/grid"
	"palletvox.app/internal/picker"
	"palletvox.app/internal/scene"
)

type Tuning struct {
	Limits grid.Limits `yaml:"limits"`

	AutosaveIntervalMs int     `yaml:"autosave_interval_ms" env:"PALLETVOX_AUTOSAVE_MS"`
	SaveTimeoutMs      int     `yaml:"save_timeout_ms"`
	DragThresholdPx    float64 `yaml:"drag_threshold_px"`
	ConfirmWindowMs    int     `yaml:"confirm_window_ms"`

	Camera camera.Params `yaml:"camera"`
	Colors Colors        `yaml:"colors"`
	Render Render        `yaml:"render"`

	Storage Storage `yaml:"storage"`
}

type Colors struct {
	Bottom string `yaml:"bottom"`
	Top    string `yaml:"top"`
	Hover  string `yaml:"hover"`
	Edge   string `yaml:"edge"`
}

type Render struct {
	FPS int `yaml:"fps"`
	// Terminal cells are mapped to pseudo-pixels so drag thresholds keep
	// their meaning on a character grid.
	CellWidthPx  int `yaml:"cell_width_px"`
	CellHeightPx int `yaml:"cell_height_px"`
}

type Storage struct {
	DBPath      string `yaml:"db_path" env:"PALLETVOX_DB"`
	EditsDir    string `yaml:"edits_dir" env:"PALLETVOX_EDITS_DIR"`
	ObserveAddr string `yaml:"observe_addr" env:"PALLETVOX_OBSERVE_ADDR"`
}

func Defaults() Tuning {
	return Tuning{
		Limits:             grid.DefaultLimits(),
		AutosaveIntervalMs: 5000,
		SaveTimeoutMs:      3000,
		DragThresholdPx:    picker.DefaultDragThreshold,
		ConfirmWindowMs:    3000,
		Camera:             camera.DefaultParams(),
		Colors: Colors{
			Bottom: scene.DefaultBottomHex,
			Top:    scene.DefaultTopHex,
			Hover:  scene.DefaultHoverHex,
			Edge:   scene.DefaultEdgeHex,
		},
		Render: Render{FPS: 30, CellWidthPx: 8, CellHeightPx: 16},
		Storage: Storage{
			DBPath:   "./data/palettes.sqlite",
			EditsDir: "./data/edits",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &t); err != nil {
				return t, fmt.Errorf("tuning.yaml: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return t, err
		}
	}
	if err := env.Parse(&t); err != nil {
		return t, fmt.Errorf("parse env: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	for _, a := range []struct {
		name string
		l    grid.AxisLimit
	}{{"length", t.Limits.Length}, {"width", t.Limits.Width}, {"height", t.Limits.Height}} {
		if a.l.Min < 1 || a.l.Max < a.l.Min {
			return fmt.Errorf("limits.%s: bad range [%d,%d]", a.name, a.l.Min, a.l.Max)
		}
		if a.l.Default < a.l.Min || a.l.Default > a.l.Max {
			return fmt.Errorf("limits.%s: default %d outside [%d,%d]", a.name, a.l.Default, a.l.Min, a.l.Max)
		}
	}
	if t.AutosaveIntervalMs <= 0 {
		return fmt.Errorf("autosave_interval_ms must be positive")
	}
	if t.DragThresholdPx <= 0 {
		return fmt.Errorf("drag_threshold_px must be positive")
	}
	c := t.Camera
	if c.Sensitivity <= 0 || c.DistanceFactor <= 0 {
		return fmt.Errorf("camera: sensitivity and distance_factor must be positive")
	}
	if c.ZoomInFactor <= 0 || c.ZoomInFactor >= 1 || c.ZoomOutFactor <= 1 {
		return fmt.Errorf("camera: zoom_in_factor must be in (0,1) and zoom_out_factor > 1")
	}
	if c.MinZoom <= 0 || c.MaxZoom < c.MinZoom {
		return fmt.Errorf("camera: bad zoom bounds [%v,%v]", c.MinZoom, c.MaxZoom)
	}
	if c.FovDeg <= 0 || c.FovDeg >= 180 || c.Near <= 0 || c.Far <= c.Near {
		return fmt.Errorf("camera: bad projection fov=%v near=%v far=%v", c.FovDeg, c.Near, c.Far)
	}
	if _, err := t.Ramp(); err != nil {
		return err
	}
	if t.Render.FPS <= 0 || t.Render.CellWidthPx <= 0 || t.Render.CellHeightPx <= 0 {
		return fmt.Errorf("render: fps and cell sizes must be positive")
	}
	return nil
}

func (t Tuning) Ramp() (scene.Ramp, error) {
	return scene.ParseRamp(t.Colors.Bottom, t.Colors.Top, t.Colors.Hover, t.Colors.Edge)
}

func (t Tuning) AutosaveInterval() time.Duration {
	return time.Duration(t.AutosaveIntervalMs) * time.Millisecond
}

func (t Tuning) SaveTimeout() time.Duration {
	if t.SaveTimeoutMs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(t.SaveTimeoutMs) * time.Millisecond
}

func (t Tuning) ConfirmWindow() time.Duration {
	return time.Duration(t.ConfirmWindowMs) * time.Millisecond
}
