package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/marigold-cafe/api/internal/cart"
	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/enum"
)

// Errors returned by the order service.
var (
	ErrEmptyItems       = errors.New("items are required")
	ErrInvalidOrderType = errors.New("invalid order_type")
	ErrTableRequired    = errors.New("table_number is required for DINE_IN orders")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrItemNotFound     = errors.New("menu item not found or unavailable")
	ErrInvalidItemID    = errors.New("invalid item_id")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	OrderType     string
	TableNumber   string
	CustomerName  string
	CustomerPhone string
	PaymentStatus string
	Items         []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single item in the order.
type CreateOrderItemRequest struct {
	ItemID              string
	Quantity            int32
	SpecialInstructions string
}

// CreateOrderResult is the full created order with its snapshotted items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

type preparedItem struct {
	itemID       uuid.UUID
	name         string
	price        decimal.Decimal
	isVeg        bool
	quantity     int32
	instructions string
}

// CreateOrder validates the request, snapshots item names and prices, and
// creates the order with its items in one transaction. Name and price are
// copied onto order_items so later menu edits never change past orders.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if !enum.ValidOrderType(req.OrderType) {
		return nil, ErrInvalidOrderType
	}
	if req.OrderType == enum.OrderTypeDineIn && req.TableNumber == "" {
		return nil, ErrTableRequired
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = enum.PaymentStatusPending
	}
	if !enum.ValidPaymentStatus(paymentStatus) {
		return nil, fmt.Errorf("invalid payment_status %q", paymentStatus)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	subtotal := decimal.Zero
	var prepared []preparedItem
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		itemID, err := uuid.Parse(item.ItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidItemID)
		}

		mi, err := store.GetMenuItemForOrder(ctx, itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrItemNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get menu item: %w", i, err)
		}

		price := numericToDecimal(mi.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
		prepared = append(prepared, preparedItem{
			itemID:       itemID,
			name:         mi.Name,
			price:        price,
			isVeg:        mi.IsVeg,
			quantity:     item.Quantity,
			instructions: item.SpecialInstructions,
		})
	}

	tax := cart.Tax(subtotal)
	total := subtotal.Add(tax)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderType:     req.OrderType,
		TableNumber:   textOrNull(req.TableNumber),
		CustomerName:  textOrNull(req.CustomerName),
		CustomerPhone: textOrNull(req.CustomerPhone),
		Subtotal:      decimalToNumeric(subtotal),
		Tax:           decimalToNumeric(tax),
		Total:         decimalToNumeric(total),
		PaymentStatus: paymentStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	result := &CreateOrderResult{Order: order}
	for i, p := range prepared {
		oi, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:             order.ID,
			MenuItemID:          pgtype.UUID{Bytes: p.itemID, Valid: true},
			ItemName:            p.name,
			ItemPrice:           decimalToNumeric(p.price),
			IsVeg:               p.isVeg,
			Quantity:            p.quantity,
			SpecialInstructions: textOrNull(p.instructions),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item[%d]: %w", i, err)
		}
		result.Items = append(result.Items, oi)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}
