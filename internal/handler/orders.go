package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/enum"
	"github.com/marigold-cafe/api/internal/middleware"
	"github.com/marigold-cafe/api/internal/service"
	"github.com/marigold-cafe/api/internal/settings"
	"github.com/marigold-cafe/api/internal/shopstatus"
)

// Notifier wakes the display synchronizers after an order mutation.
// Satisfied by *view.Dispatcher.
type Notifier interface {
	OrderChanged()
}

// OrderStore defines the database methods needed by order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrdersByStatuses(ctx context.Context, statuses []string) ([]database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ResetOrderNumbers(ctx context.Context) error
	ListSettings(ctx context.Context) ([]database.SystemSetting, error)
}

// OrderCreator is the service surface for placing orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderHandler handles order creation, the display lists and the
// lifecycle mutations.
type OrderHandler struct {
	store    OrderStore
	creator  OrderCreator
	notifier Notifier
	now      func() time.Time
}

func NewOrderHandler(store OrderStore, creator OrderCreator, notifier Notifier) *OrderHandler {
	return &OrderHandler{store: store, creator: creator, notifier: notifier, now: time.Now}
}

// RegisterCustomerRoutes registers the endpoints behind the CUSTOMER gate.
func (h *OrderHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Get)
}

// RegisterStaffRoutes registers the display lists and the status mutation.
// Role checks are applied per transition inside Update, so kitchen and
// board share the endpoint.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/kitchen/orders", h.KitchenList)
	r.Get("/board/orders", h.BoardList)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
}

// RegisterAdminRoutes registers the back-office order endpoints, mounted
// at /admin/orders behind the ADMIN role check.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.AdminList)
	r.Post("/reset-numbers", h.ResetNumbers)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/payment", h.UpdatePayment)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderType     string                   `json:"order_type"`
	TableNumber   string                   `json:"table_number"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPhone string                   `json:"customer_phone"`
	PaymentStatus string                   `json:"payment_status"`
	Items         []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ItemID              string `json:"item_id"`
	Quantity            int32  `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status"`
}

type orderItemResponse struct {
	ID                  uuid.UUID `json:"id"`
	MenuItemID          *string   `json:"menu_item_id"`
	ItemName            string    `json:"item_name"`
	ItemPrice           string    `json:"item_price"`
	IsVeg               bool      `json:"is_veg"`
	Quantity            int32     `json:"quantity"`
	SpecialInstructions *string   `json:"special_instructions"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   int32               `json:"order_number"`
	OrderType     string              `json:"order_type"`
	TableNumber   *string             `json:"table_number"`
	CustomerName  *string             `json:"customer_name"`
	CustomerPhone *string             `json:"customer_phone"`
	Subtotal      string              `json:"subtotal"`
	Tax           string              `json:"tax"`
	Total         string              `json:"total"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	Items         []orderItemResponse `json:"items,omitempty"`
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:        it.ID,
		ItemName:  it.ItemName,
		ItemPrice: numericToString(it.ItemPrice),
		IsVeg:     it.IsVeg,
		Quantity:  it.Quantity,
	}
	if it.MenuItemID.Valid {
		s := uuid.UUID(it.MenuItemID.Bytes).String()
		resp.MenuItemID = &s
	}
	if it.SpecialInstructions.Valid {
		resp.SpecialInstructions = &it.SpecialInstructions.String
	}
	return resp
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		OrderType:     o.OrderType,
		Subtotal:      numericToString(o.Subtotal),
		Tax:           numericToString(o.Tax),
		Total:         numericToString(o.Total),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
	}
	if o.TableNumber.Valid {
		resp.TableNumber = &o.TableNumber.String
	}
	if o.CustomerName.Valid {
		resp.CustomerName = &o.CustomerName.String
	}
	if o.CustomerPhone.Valid {
		resp.CustomerPhone = &o.CustomerPhone.String
	}
	resp.CreatedAt = o.CreatedAt
	resp.UpdatedAt = o.UpdatedAt
	if o.CompletedAt.Valid {
		t := o.CompletedAt.Time
		resp.CompletedAt = &t
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(it))
	}
	return resp
}

// --- Handlers ---

// Create places a new order. The shop must be open.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// An unreadable settings table must not block ordering; Load hands
	// back the permissive defaults alongside the error.
	cfg, err := settings.Load(r.Context(), h.store)
	if err != nil {
		log.Printf("ERROR: create order: load settings, using defaults: %v", err)
	}
	status := shopstatus.Evaluate(cfg.OpenTime, cfg.CloseTime, cfg.ManuallyOpen, h.now())
	if !status.IsOpen {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "shop is closed"})
		return
	}

	if req.PaymentStatus != "" &&
		req.PaymentStatus != enum.PaymentStatusPending &&
		req.PaymentStatus != enum.PaymentStatusCashPending {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_status"})
		return
	}

	items := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.CreateOrderItemRequest{
			ItemID:              it.ItemID,
			Quantity:            it.Quantity,
			SpecialInstructions: it.SpecialInstructions,
		}
	}

	result, err := h.creator.CreateOrder(r.Context(), service.CreateOrderRequest{
		OrderType:     req.OrderType,
		TableNumber:   req.TableNumber,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PaymentStatus: req.PaymentStatus,
		Items:         items,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderType),
			errors.Is(err, service.ErrTableRequired),
			errors.Is(err, service.ErrEmptyItems),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidItemID),
			errors.Is(err, service.ErrItemNotFound):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: create order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notifier.OrderChanged()
	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// Get returns one order with its items, for the thank-you page.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: get order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// KitchenList returns the orders the kitchen is working: PENDING and
// PREPARING, oldest first.
func (h *OrderHandler) KitchenList(w http.ResponseWriter, r *http.Request) {
	h.listByStatuses(w, r, []string{enum.OrderStatusPending, enum.OrderStatusPreparing})
}

// BoardList returns the READY orders for the pickup board.
func (h *OrderHandler) BoardList(w http.ResponseWriter, r *http.Request) {
	h.listByStatuses(w, r, []string{enum.OrderStatusReady})
}

func (h *OrderHandler) listByStatuses(w http.ResponseWriter, r *http.Request, statuses []string) {
	orders, err := h.store.ListOrdersByStatuses(r.Context(), statuses)
	if err != nil {
		log.Printf("ERROR: list orders by status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp = append(resp, toOrderResponse(o, items))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AdminList returns orders newest first with optional filters:
// ?status= &order_type= &start= &end= (RFC 3339) &limit= &offset=.
func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := database.ListOrdersParams{Limit: 50}
	if s := q.Get("status"); s != "" {
		if !enum.ValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("order_type"); s != "" {
		if !enum.ValidOrderType(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_type filter"})
			return
		}
		params.OrderType = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start time"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := q.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end time"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if n := parsePositiveInt(q.Get("limit")); n > 0 && n <= 200 {
		params.Limit = int32(n)
	}
	if n := parsePositiveInt(q.Get("offset")); n > 0 {
		params.Offset = int32(n)
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an order through its lifecycle. The caller's role
// limits which transitions are allowed; the write is a compare-and-set
// so a concurrent change surfaces as a conflict instead of a silent
// overwrite.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update status: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := service.ValidateTransition(claims.Role, order.Status, req.Status, order.PaymentStatus); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrNotAllowedForRole):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     req.Status,
		PrevStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Someone else moved the order between our read and write.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order changed, retry"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.notifier.OrderChanged()
	writeJSON(w, http.StatusOK, toOrderResponse(updated, nil))
}

// UpdatePayment sets the order's payment status. Admin only.
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !enum.ValidPaymentStatus(req.PaymentStatus) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_status"})
		return
	}

	updated, err := h.store.UpdateOrderPaymentStatus(r.Context(), database.UpdateOrderPaymentStatusParams{
		ID:            orderID,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update order payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.notifier.OrderChanged()
	writeJSON(w, http.StatusOK, toOrderResponse(updated, nil))
}

// Delete removes an order and its items.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	_, err = h.store.DeleteOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: delete order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.notifier.OrderChanged()
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// ResetNumbers restarts the human-facing order number sequence, typically
// at the start of a business day.
func (h *OrderHandler) ResetNumbers(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetOrderNumbers(r.Context()); err != nil {
		log.Printf("ERROR: reset order numbers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order numbers reset"})
}

// --- Helpers ---

func parsePositiveInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0
		}
	}
	return n
}
