package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type MenuCategory struct {
	ID           uuid.UUID
	Name         string
	Icon         pgtype.Text
	DisplayOrder int32
	IsActive     bool
	CreatedAt    time.Time
}

type MenuItem struct {
	ID           uuid.UUID
	CategoryID   uuid.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	FoodType     string
	IsVeg        bool
	SpiceType    string
	IsActive     bool
	ImageURL     pgtype.Text
	Subcategory  pgtype.Text
	DisplayOrder int32
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Order struct {
	ID            uuid.UUID
	OrderNumber   int32
	OrderType     string
	TableNumber   pgtype.Text
	CustomerName  pgtype.Text
	CustomerPhone pgtype.Text
	Subtotal      pgtype.Numeric
	Tax           pgtype.Numeric
	Total         pgtype.Numeric
	Status        string
	PaymentStatus string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   pgtype.Timestamptz
}

// OrderItem freezes name/price/is_veg at order time so historical orders
// are immune to later menu edits.
type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	MenuItemID          pgtype.UUID
	ItemName            string
	ItemPrice           pgtype.Numeric
	IsVeg               bool
	Quantity            int32
	SpecialInstructions pgtype.Text
}

type SystemSetting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

type StaffUser struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
