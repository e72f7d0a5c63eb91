package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Group struct {
	ID        string
	Name      string
	CreatedAt int64
}

func (s *Store) CreateGroup(ctx context.Context, name string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("empty group name")
	}
	g := Group{ID: uuid.NewString(), Name: name, CreatedAt: s.nowMs()}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO palette_groups(id,name,created_at) VALUES(?,?,?)`,
		g.ID, g.Name, g.CreatedAt); err != nil {
		return Group{}, fmt.Errorf("insert group: %w", err)
	}
	return g, nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (Group, error) {
	var g Group
	err := s.db.QueryRowContext(ctx, `SELECT id,name,created_at FROM palette_groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	return g, err
}

// ListGroups returns groups oldest first.
func (s *Store) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,created_at FROM palette_groups ORDER BY created_at ASC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteGroup removes the group and ungroups every palette that referenced it.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE palettes SET group_id = NULL WHERE group_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM palette_groups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// AssignGroup moves a palette into groupID, or out of any group when nil.
// UpdatedAt is left alone: regrouping is not an edit of the load.
func (s *Store) AssignGroup(ctx context.Context, paletteID string, groupID *string) error {
	if groupID != nil {
		if _, err := s.GetGroup(ctx, *groupID); err != nil {
			return err
		}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE palettes SET group_id = ? WHERE id = ?`, nullable(groupID), paletteID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("palette %s: %w", paletteID, ErrNotFound)
	}
	return nil
}
