package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const categoryColumns = `id, name, icon, display_order, is_active, created_at`

func scanMenuCategory(row interface{ Scan(dest ...any) error }) (MenuCategory, error) {
	var c MenuCategory
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.DisplayOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

// ListActiveCategories returns active categories in display order, for the
// customer-facing menu.
func (q *Queries) ListActiveCategories(ctx context.Context) ([]MenuCategory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM menu_categories
		WHERE is_active = true
		ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuCategory
	for rows.Next() {
		c, err := scanMenuCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListAllCategories returns every category, active or not, for the admin
// back-office.
func (q *Queries) ListAllCategories(ctx context.Context) ([]MenuCategory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM menu_categories
		ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuCategory
	for rows.Next() {
		c, err := scanMenuCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type CreateCategoryParams struct {
	Name         string
	Icon         pgtype.Text
	DisplayOrder int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_categories (name, icon, display_order)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		arg.Name, arg.Icon, arg.DisplayOrder)
	return scanMenuCategory(row)
}

type UpdateCategoryParams struct {
	ID           uuid.UUID
	Name         string
	Icon         pgtype.Text
	DisplayOrder int32
	IsActive     bool
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_categories
		SET name = $2, icon = $3, display_order = $4, is_active = $5
		WHERE id = $1
		RETURNING `+categoryColumns,
		arg.ID, arg.Name, arg.Icon, arg.DisplayOrder, arg.IsActive)
	return scanMenuCategory(row)
}

// DeleteCategory removes the category. Menu items reference categories with
// ON DELETE CASCADE; order items carry value-copied snapshots so history
// survives.
func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM menu_categories WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}
