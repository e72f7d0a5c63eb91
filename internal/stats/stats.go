// Package stats derives pallet fill figures from an occupancy set.
package stats

import (
	"strconv"

	"palletvox.app/internal/grid"
)

type Stats struct {
	Capacity int `json:"capacity"`
	Present  int `json:"present"`
	// Extra counts cartons tracked outside the grid (loose on top, overflow).
	Extra        int     `json:"extra,omitempty"`
	TotalPresent int     `json:"total_present"`
	FillRate     float64 `json:"-"`
	FillRateText string  `json:"fill_rate"`
}

func Compute(occ grid.Occupancy, d grid.Dimensions, extra int) Stats {
	return FromCounts(occ.Len(), d.Capacity(), extra)
}

func FromCounts(present, capacity, extra int) Stats {
	if extra < 0 {
		extra = 0
	}
	// Text comes from the rounded rate so .x5 ties round up, not to even.
	rate := grid.FillRate(present, capacity)
	return Stats{
		Capacity:     capacity,
		Present:      present,
		Extra:        extra,
		TotalPresent: present + extra,
		FillRate:     rate,
		FillRateText: strconv.FormatFloat(rate, 'f', 1, 64),
	}
}

// Badge is the "present/capacity | rate%" text shown in the status bar.
func (s Stats) Badge() string {
	out := strconv.Itoa(s.Present) + "/" + strconv.Itoa(s.Capacity) + " | " + s.FillRateText + "%"
	if s.Extra > 0 {
		out += " (+" + strconv.Itoa(s.Extra) + " = " + strconv.Itoa(s.TotalPresent) + ")"
	}
	return out
}
