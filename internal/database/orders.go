package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, order_type, table_number,
	customer_name, customer_phone, subtotal, tax, total, status,
	payment_status, created_at, updated_at, completed_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.OrderType, &o.TableNumber,
		&o.CustomerName, &o.CustomerPhone, &o.Subtotal, &o.Tax, &o.Total,
		&o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt)
	return o, err
}

func (q *Queries) collectOrders(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type CreateOrderParams struct {
	OrderType     string
	TableNumber   pgtype.Text
	CustomerName  pgtype.Text
	CustomerPhone pgtype.Text
	Subtotal      pgtype.Numeric
	Tax           pgtype.Numeric
	Total         pgtype.Numeric
	PaymentStatus string
}

// CreateOrder inserts a new PENDING order. order_number comes from a
// dedicated sequence so numbers stay short and human-facing.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders
			(order_number, order_type, table_number, customer_name,
			 customer_phone, subtotal, tax, total, status, payment_status)
		VALUES (nextval('order_number_seq'), $1, $2, $3, $4, $5, $6, $7,
			'PENDING', $8)
		RETURNING `+orderColumns,
		arg.OrderType, arg.TableNumber, arg.CustomerName, arg.CustomerPhone,
		arg.Subtotal, arg.Tax, arg.Total, arg.PaymentStatus)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID             uuid.UUID
	MenuItemID          pgtype.UUID
	ItemName            string
	ItemPrice           pgtype.Numeric
	IsVeg               bool
	Quantity            int32
	SpecialInstructions pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items
			(order_id, menu_item_id, item_name, item_price, is_veg,
			 quantity, special_instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, order_id, menu_item_id, item_name, item_price, is_veg,
			quantity, special_instructions`,
		arg.OrderID, arg.MenuItemID, arg.ItemName, arg.ItemPrice, arg.IsVeg,
		arg.Quantity, arg.SpecialInstructions).
		Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName, &it.ItemPrice,
			&it.IsVeg, &it.Quantity, &it.SpecialInstructions)
	return it, err
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, item_name, item_price, is_veg,
			quantity, special_instructions
		FROM order_items
		WHERE order_id = $1
		ORDER BY item_name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName,
			&it.ItemPrice, &it.IsVeg, &it.Quantity, &it.SpecialInstructions); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type ListOrdersParams struct {
	Status    pgtype.Text
	OrderType pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

// ListOrders returns orders newest first with optional filters, for the
// admin orders screen.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	return q.collectOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR order_type = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		arg.Status, arg.OrderType, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
}

// ListOrdersByStatuses returns orders in any of the given statuses, oldest
// first. The kitchen and the pickup board derive their views from this.
func (q *Queries) ListOrdersByStatuses(ctx context.Context, statuses []string) ([]Order, error) {
	return q.collectOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = ANY($1)
		ORDER BY created_at`, statuses)
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	PrevStatus string
}

// UpdateOrderStatus is a compare-and-set on the current status: zero rows
// means the order changed underneath us and the caller should return a conflict.
// completed_at is stamped exactly when the order reaches COMPLETED.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $2,
			completed_at = CASE WHEN $2 = 'COMPLETED' THEN now() ELSE completed_at END,
			updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.PrevStatus)
	return scanOrder(row)
}

type UpdateOrderPaymentStatusParams struct {
	ID            uuid.UUID
	PaymentStatus string
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET payment_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.PaymentStatus)
	return scanOrder(row)
}

// DeleteOrder removes the order; order_items cascade.
func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM orders WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}

// ResetOrderNumbers restarts the human-facing order number sequence at 1.
func (q *Queries) ResetOrderNumbers(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `SELECT setval('order_number_seq', 1, false)`)
	return err
}

type DailySalesRow struct {
	SaleDate   pgtype.Date
	OrderCount int64
	Revenue    pgtype.Numeric
}

type GetDailySalesParams struct {
	StartDate time.Time
	EndDate   time.Time
}

// GetDailySales aggregates completed orders per day for the admin report.
func (q *Queries) GetDailySales(ctx context.Context, arg GetDailySalesParams) ([]DailySalesRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT created_at::date AS sale_date,
			COUNT(*) AS order_count,
			COALESCE(SUM(total), 0) AS revenue
		FROM orders
		WHERE status = 'COMPLETED'
		  AND created_at >= $1 AND created_at < $2
		GROUP BY sale_date
		ORDER BY sale_date`, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailySalesRow
	for rows.Next() {
		var r DailySalesRow
		if err := rows.Scan(&r.SaleDate, &r.OrderCount, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
