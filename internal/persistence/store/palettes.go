package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"palletvox.app/internal/grid"
	"palletvox.app/internal/stats"
)

// Palette is one recorded pallet. Timestamps are Unix milliseconds, UTC.
type Palette struct {
	ID           string
	Name         string
	Dimensions   grid.Dimensions
	Cubes        grid.Occupancy
	Stats        stats.Stats
	GroupID      *string
	ExtraCartons int
	CreatedAt    int64
	UpdatedAt    int64
}

// Clone deep-copies p so the copy can travel to another goroutine.
func (p Palette) Clone() Palette {
	out := p
	out.Cubes = p.Cubes.Clone()
	if p.GroupID != nil {
		g := *p.GroupID
		out.GroupID = &g
	}
	return out
}

func DefaultName(t time.Time) string {
	return "Palette " + t.Format("02/01/2006")
}

// CreatePalette stores a new, completely full palette.
func (s *Store) CreatePalette(ctx context.Context, d grid.Dimensions, name string, groupID *string) (Palette, error) {
	if err := d.Validate(s.limits); err != nil {
		return Palette{}, err
	}
	now := s.now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(now)
	}
	cubes := grid.FillAll(d)
	p := Palette{
		ID:         uuid.NewString(),
		Name:       name,
		Dimensions: d,
		Cubes:      cubes,
		Stats:      stats.Compute(cubes, d, 0),
		GroupID:    groupID,
		CreatedAt:  now.UTC().UnixMilli(),
		UpdatedAt:  now.UTC().UnixMilli(),
	}
	if err := insertPalette(ctx, s.db, p); err != nil {
		return Palette{}, err
	}
	return p, nil
}

// ImportPalette stores p as given (used for snapshot restore). A missing ID is
// generated; an existing row with the same ID is replaced.
func (s *Store) ImportPalette(ctx context.Context, p Palette) (Palette, error) {
	if err := p.Dimensions.Validate(s.limits); err != nil {
		return Palette{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.nowMs()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = now
	}
	if p.Cubes == nil {
		p.Cubes = grid.Empty()
	}
	p.Stats = stats.Compute(p.Cubes, p.Dimensions, p.ExtraCartons)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Palette{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM palettes WHERE id = ?`, p.ID); err != nil {
		return Palette{}, err
	}
	if err := insertPalette(ctx, tx, p); err != nil {
		return Palette{}, err
	}
	if err := tx.Commit(); err != nil {
		return Palette{}, err
	}
	return p, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPalette(ctx context.Context, db execer, p Palette) error {
	cubes, err := encodeCubes(p.Cubes)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO palettes(
		id,name,length,width,height,cubes_json,capacity,present,fill_rate,group_id,extra_cartons,created_at,updated_at
	) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Dimensions.Length, p.Dimensions.Width, p.Dimensions.Height,
		cubes, p.Stats.Capacity, p.Stats.Present, p.Stats.FillRateText,
		nullable(p.GroupID), p.ExtraCartons, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert palette %s: %w", p.ID, err)
	}
	return nil
}

const paletteCols = `id,name,length,width,height,cubes_json,group_id,extra_cartons,created_at,updated_at`

func (s *Store) GetPalette(ctx context.Context, id string) (Palette, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+paletteCols+` FROM palettes WHERE id = ?`, id)
	p, err := scanPalette(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Palette{}, fmt.Errorf("palette %s: %w", id, ErrNotFound)
	}
	return p, err
}

// ListPalettes returns every palette, most recently updated first.
func (s *Store) ListPalettes(ctx context.Context) ([]Palette, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+paletteCols+` FROM palettes ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Palette
	for rows.Next() {
		p, err := scanPalette(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePalette writes p, recomputing stats and bumping UpdatedAt. The group
// is owned by AssignGroup and DeleteGroup; p.GroupID is ignored and the
// returned palette carries the stored group.
func (s *Store) UpdatePalette(ctx context.Context, p Palette) (Palette, error) {
	if p.Cubes == nil {
		p.Cubes = grid.Empty()
	}
	p.Stats = stats.Compute(p.Cubes, p.Dimensions, p.ExtraCartons)
	p.UpdatedAt = s.nowMs()
	cubes, err := encodeCubes(p.Cubes)
	if err != nil {
		return Palette{}, err
	}
	var groupID sql.NullString
	err = s.db.QueryRowContext(ctx, `UPDATE palettes SET
		name=?, cubes_json=?, capacity=?, present=?, fill_rate=?, extra_cartons=?, updated_at=?
		WHERE id=? RETURNING group_id`,
		p.Name, cubes, p.Stats.Capacity, p.Stats.Present, p.Stats.FillRateText,
		p.ExtraCartons, p.UpdatedAt, p.ID).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return Palette{}, fmt.Errorf("palette %s: %w", p.ID, ErrNotFound)
	}
	if err != nil {
		return Palette{}, fmt.Errorf("update palette %s: %w", p.ID, err)
	}
	p.GroupID = nil
	if groupID.Valid {
		g := groupID.String
		p.GroupID = &g
	}
	return p, nil
}

func (s *Store) DeletePalette(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM palettes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("palette %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPalette(sc scanner) (Palette, error) {
	var (
		p       Palette
		cubes   string
		groupID sql.NullString
	)
	if err := sc.Scan(&p.ID, &p.Name, &p.Dimensions.Length, &p.Dimensions.Width, &p.Dimensions.Height,
		&cubes, &groupID, &p.ExtraCartons, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Palette{}, err
	}
	occ, err := decodeCubes(cubes)
	if err != nil {
		return Palette{}, fmt.Errorf("palette %s cubes: %w", p.ID, err)
	}
	p.Cubes = occ
	if groupID.Valid {
		g := groupID.String
		p.GroupID = &g
	}
	p.Stats = stats.Compute(p.Cubes, p.Dimensions, p.ExtraCartons)
	return p, nil
}

// Cubes are stored as a JSON array of "x,y,z" keys.
func encodeCubes(occ grid.Occupancy) (string, error) {
	b, err := json.Marshal(occ.Keys())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCubes(s string) (grid.Occupancy, error) {
	var keys []string
	if err := json.Unmarshal([]byte(s), &keys); err != nil {
		return nil, err
	}
	return grid.FromKeys(keys)
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
