package database

import (
	"context"

	"github.com/google/uuid"
)

const staffColumns = `id, email, hashed_password, full_name, role, is_active,
	created_at, updated_at`

func scanStaffUser(row interface{ Scan(dest ...any) error }) (StaffUser, error) {
	var u StaffUser
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (StaffUser, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+staffColumns+` FROM staff_users
		WHERE email = $1 AND is_active = true`, email)
	return scanStaffUser(row)
}

func (q *Queries) GetStaffByID(ctx context.Context, id uuid.UUID) (StaffUser, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+staffColumns+` FROM staff_users WHERE id = $1`, id)
	return scanStaffUser(row)
}

func (q *Queries) ListStaff(ctx context.Context) ([]StaffUser, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+staffColumns+` FROM staff_users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StaffUser
	for rows.Next() {
		u, err := scanStaffUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type CreateStaffParams struct {
	Email          string
	HashedPassword string
	FullName       string
	Role           string
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (StaffUser, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO staff_users (email, hashed_password, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+staffColumns,
		arg.Email, arg.HashedPassword, arg.FullName, arg.Role)
	return scanStaffUser(row)
}

type UpdateStaffParams struct {
	ID       uuid.UUID
	FullName string
	Role     string
	IsActive bool
}

func (q *Queries) UpdateStaff(ctx context.Context, arg UpdateStaffParams) (StaffUser, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE staff_users
		SET full_name = $2, role = $3, is_active = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+staffColumns,
		arg.ID, arg.FullName, arg.Role, arg.IsActive)
	return scanStaffUser(row)
}

// SoftDeleteStaff deactivates the account. Rows stay for audit.
func (q *Queries) SoftDeleteStaff(ctx context.Context, id uuid.UUID) (StaffUser, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE staff_users
		SET is_active = false, updated_at = now()
		WHERE id = $1
		RETURNING `+staffColumns, id)
	return scanStaffUser(row)
}
