package sqlstore

import (
	"context"
	"fmt"

	"dompet/internal/core"
)

const categoryColumns = "id, user_id, name, kind, color, created_at, updated_at"

func scanCategory(row scanner) (core.Category, error) {
	var (
		c                core.Category
		kind             string
		created, updated int64
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &kind, &c.Color, &created, &updated); err != nil {
		return core.Category{}, err
	}
	c.Kind = core.Kind(kind)
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID string, kind core.Kind) ([]core.Category, error) {
	return s.listCategories(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id = ? AND kind = ? ORDER BY name",
		userID, string(kind))
}

func (s *Store) ListAllCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.listCategories(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id = ? ORDER BY name",
		userID)
}

func (s *Store) listCategories(ctx context.Context, q string, args ...any) ([]core.Category, error) {
	rows, err := s.queryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ResolveCategory(ctx context.Context, userID string, kind core.Kind, name, color string) (core.Category, error) {
	now := millis(s.now())
	c, err := scanCategory(s.queryRow(ctx, `
		INSERT INTO categories (id, user_id, name, kind, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, kind, name) DO UPDATE SET updated_at = excluded.updated_at
		RETURNING `+categoryColumns,
		core.NewID(), userID, name, string(kind), color, now, now))
	if err != nil {
		return core.Category{}, fmt.Errorf("upsert category %q: %w", name, err)
	}
	return c, nil
}
