package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, category_id, name, description, price, food_type,
	is_veg, spice_type, is_active, image_url, subcategory, display_order,
	created_at, updated_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
		&m.FoodType, &m.IsVeg, &m.SpiceType, &m.IsActive, &m.ImageURL,
		&m.Subcategory, &m.DisplayOrder, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (q *Queries) collectMenuItems(ctx context.Context, sql string, args ...any) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListActiveMenuItems returns the browsable menu: active items only.
func (q *Queries) ListActiveMenuItems(ctx context.Context) ([]MenuItem, error) {
	return q.collectMenuItems(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE is_active = true
		ORDER BY display_order, name`)
}

// ListAllMenuItems returns every item including hidden ones, for admin.
func (q *Queries) ListAllMenuItems(ctx context.Context) ([]MenuItem, error) {
	return q.collectMenuItems(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		ORDER BY display_order, name`)
}

// GetMenuItemForOrder fetches an active item for price snapshotting.
// Inactive items are invisible to ordering.
func (q *Queries) GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE id = $1 AND is_active = true`, id)
	return scanMenuItem(row)
}

type CreateMenuItemParams struct {
	CategoryID   uuid.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	FoodType     string
	IsVeg        bool
	SpiceType    string
	ImageURL     pgtype.Text
	Subcategory  pgtype.Text
	DisplayOrder int32
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items
			(category_id, name, description, price, food_type, is_veg,
			 spice_type, image_url, subcategory, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+menuItemColumns,
		arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.FoodType,
		arg.IsVeg, arg.SpiceType, arg.ImageURL, arg.Subcategory, arg.DisplayOrder)
	return scanMenuItem(row)
}

type UpdateMenuItemParams struct {
	ID           uuid.UUID
	CategoryID   uuid.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	FoodType     string
	IsVeg        bool
	SpiceType    string
	ImageURL     pgtype.Text
	Subcategory  pgtype.Text
	DisplayOrder int32
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET category_id = $2, name = $3, description = $4, price = $5,
			food_type = $6, is_veg = $7, spice_type = $8, image_url = $9,
			subcategory = $10, display_order = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+menuItemColumns,
		arg.ID, arg.CategoryID, arg.Name, arg.Description, arg.Price,
		arg.FoodType, arg.IsVeg, arg.SpiceType, arg.ImageURL,
		arg.Subcategory, arg.DisplayOrder)
	return scanMenuItem(row)
}

type SetMenuItemActiveParams struct {
	ID       uuid.UUID
	IsActive bool
}

// SetMenuItemActive toggles availability without deleting, so the item can
// be hidden and restored.
func (q *Queries) SetMenuItemActive(ctx context.Context, arg SetMenuItemActiveParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+menuItemColumns,
		arg.ID, arg.IsActive)
	return scanMenuItem(row)
}

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM menu_items WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}
