package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/marigold-cafe/api/internal/auth"
	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/handler"
	mw "github.com/marigold-cafe/api/internal/middleware"
	"github.com/marigold-cafe/api/internal/service"
)

// --- Mocks ---

type mockOrderHandlerStore struct {
	orders     map[uuid.UUID]database.Order
	items      map[uuid.UUID][]database.OrderItem
	settings   map[string]string
	listParams *database.ListOrdersParams
	// forceStatusConflict makes the compare-and-set fail as if another
	// writer changed the row between read and write.
	forceStatusConflict bool
	resetCalled         bool
}

func newMockOrderHandlerStore() *mockOrderHandlerStore {
	return &mockOrderHandlerStore{
		orders: make(map[uuid.UUID]database.Order),
		items:  make(map[uuid.UUID][]database.OrderItem),
		// Always-open hours keep the shop-open check out of the way for
		// tests that are not about it.
		settings: map[string]string{
			"open_time":        "00:00",
			"close_time":       "00:00",
			"is_manually_open": "true",
		},
	}
}

func (m *mockOrderHandlerStore) addOrder(status, paymentStatus string) database.Order {
	o := database.Order{
		ID:            uuid.New(),
		OrderNumber:   int32(len(m.orders) + 1),
		OrderType:     "DINE_IN",
		TableNumber:   pgtype.Text{String: "4", Valid: true},
		Subtotal:      makeTestNumeric("100"),
		Tax:           makeTestNumeric("5"),
		Total:         makeTestNumeric("105"),
		Status:        status,
		PaymentStatus: paymentStatus,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	m.orders[o.ID] = o
	return o
}

func (m *mockOrderHandlerStore) GetOrder(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderHandlerStore) ListOrderItemsByOrder(_ context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *mockOrderHandlerStore) ListOrders(_ context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	m.listParams = &arg
	var out []database.Order
	for _, o := range m.orders {
		if arg.Status.Valid && o.Status != arg.Status.String {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderHandlerStore) ListOrdersByStatuses(_ context.Context, statuses []string) ([]database.Order, error) {
	var out []database.Order
	for _, o := range m.orders {
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (m *mockOrderHandlerStore) UpdateOrderStatus(_ context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || m.forceStatusConflict || o.Status != arg.PrevStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	if arg.Status == "COMPLETED" {
		o.CompletedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	}
	o.UpdatedAt = time.Now()
	m.orders[o.ID] = o
	return o, nil
}

func (m *mockOrderHandlerStore) UpdateOrderPaymentStatus(_ context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.PaymentStatus = arg.PaymentStatus
	m.orders[o.ID] = o
	return o, nil
}

func (m *mockOrderHandlerStore) DeleteOrder(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.orders[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.orders, id)
	return id, nil
}

func (m *mockOrderHandlerStore) ResetOrderNumbers(_ context.Context) error {
	m.resetCalled = true
	return nil
}

func (m *mockOrderHandlerStore) ListSettings(_ context.Context) ([]database.SystemSetting, error) {
	var out []database.SystemSetting
	for k, v := range m.settings {
		out = append(out, database.SystemSetting{Key: k, Value: v})
	}
	return out, nil
}

type mockCreator struct {
	fn func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

func (m *mockCreator) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	return m.fn(ctx, req)
}

type mockNotifier struct {
	calls int
}

func (m *mockNotifier) OrderChanged() { m.calls++ }

func makeTestNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}

func succeedingCreator(store *mockOrderHandlerStore) *mockCreator {
	return &mockCreator{fn: func(_ context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
		o := store.addOrder("PENDING", "PENDING")
		return &service.CreateOrderResult{Order: o}, nil
	}}
}

func setupOrderRouter(store *mockOrderHandlerStore, creator handler.OrderCreator, notifier *mockNotifier) *chi.Mux {
	h := handler.NewOrderHandler(store, creator, notifier)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(testSecret))
		h.RegisterCustomerRoutes(r)
		h.RegisterStaffRoutes(r)
		r.Route("/admin/orders", h.RegisterAdminRoutes)
	})
	return r
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, uuid.New(), role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// --- Create tests ---

func TestOrderCreate_Valid(t *testing.T) {
	store := newMockOrderHandlerStore()
	notifier := &mockNotifier{}
	router := setupOrderRouter(store, succeedingCreator(store), notifier)

	rr := doAuthRequest(t, router, "POST", "/orders", tokenFor(t, "CUSTOMER"), map[string]interface{}{
		"order_type":   "DINE_IN",
		"table_number": "4",
		"items": []map[string]interface{}{
			{"item_id": uuid.NewString(), "quantity": 2},
		},
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if notifier.calls != 1 {
		t.Errorf("notifier calls: got %d, want 1", notifier.calls)
	}

	resp := decodeResponse(t, rr)
	if resp["status"] != "PENDING" {
		t.Errorf("status: got %v, want PENDING", resp["status"])
	}
}

func TestOrderCreate_ShopClosed(t *testing.T) {
	store := newMockOrderHandlerStore()
	store.settings["is_manually_open"] = "false"
	notifier := &mockNotifier{}
	router := setupOrderRouter(store, succeedingCreator(store), notifier)

	rr := doAuthRequest(t, router, "POST", "/orders", tokenFor(t, "CUSTOMER"), map[string]interface{}{
		"order_type": "TAKEAWAY",
		"items": []map[string]interface{}{
			{"item_id": uuid.NewString(), "quantity": 1},
		},
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	if notifier.calls != 0 {
		t.Errorf("notifier calls: got %d, want 0", notifier.calls)
	}
}

func TestOrderCreate_ValidationError(t *testing.T) {
	store := newMockOrderHandlerStore()
	creator := &mockCreator{fn: func(_ context.Context, _ service.CreateOrderRequest) (*service.CreateOrderResult, error) {
		return nil, service.ErrEmptyItems
	}}
	notifier := &mockNotifier{}
	router := setupOrderRouter(store, creator, notifier)

	rr := doAuthRequest(t, router, "POST", "/orders", tokenFor(t, "CUSTOMER"), map[string]interface{}{
		"order_type": "TAKEAWAY",
		"items":      []map[string]interface{}{},
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	if notifier.calls != 0 {
		t.Errorf("notifier calls: got %d, want 0", notifier.calls)
	}
}

func TestOrderCreate_PaidNotAccepted(t *testing.T) {
	store := newMockOrderHandlerStore()
	notifier := &mockNotifier{}
	router := setupOrderRouter(store, succeedingCreator(store), notifier)

	// Customers cannot declare their order already paid.
	rr := doAuthRequest(t, router, "POST", "/orders", tokenFor(t, "CUSTOMER"), map[string]interface{}{
		"order_type":     "TAKEAWAY",
		"payment_status": "PAID",
		"items": []map[string]interface{}{
			{"item_id": uuid.NewString(), "quantity": 1},
		},
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestOrderCreate_Unauthenticated(t *testing.T) {
	store := newMockOrderHandlerStore()
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_type": "TAKEAWAY",
		"items": []map[string]interface{}{
			{"item_id": uuid.NewString(), "quantity": 1},
		},
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Get tests ---

func TestOrderGet_Valid(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("PENDING", "PENDING")
	store.items[order.ID] = []database.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, ItemName: "Masala Chai",
			ItemPrice: makeTestNumeric("25"), IsVeg: true, Quantity: 2},
	}
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), tokenFor(t, "CUSTOMER"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["total"] != "105.00" {
		t.Errorf("total: got %v, want 105.00", resp["total"])
	}
	items := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["item_name"] != "Masala Chai" {
		t.Errorf("item_name: got %v, want Masala Chai", item["item_name"])
	}
	if item["item_price"] != "25.00" {
		t.Errorf("item_price: got %v, want 25.00", item["item_price"])
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	store := newMockOrderHandlerStore()
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "GET", "/orders/"+uuid.NewString(), tokenFor(t, "CUSTOMER"), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Display list tests ---

func TestKitchenList_PendingAndPreparing(t *testing.T) {
	store := newMockOrderHandlerStore()
	store.addOrder("PENDING", "PENDING")
	store.addOrder("PREPARING", "PENDING")
	store.addOrder("READY", "PENDING")
	store.addOrder("COMPLETED", "PAID")
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "GET", "/kitchen/orders", tokenFor(t, "KITCHEN"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 2 {
		t.Errorf("expected 2 orders, got %d", len(resp))
	}
}

func TestBoardList_ReadyOnly(t *testing.T) {
	store := newMockOrderHandlerStore()
	store.addOrder("PENDING", "PENDING")
	store.addOrder("READY", "PENDING")
	store.addOrder("SERVED", "PAID")
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "GET", "/board/orders", tokenFor(t, "BOARD"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 order, got %d", len(resp))
	}
	if resp[0]["status"] != "READY" {
		t.Errorf("status: got %v, want READY", resp[0]["status"])
	}
}

// --- Status update tests ---

func TestOrderUpdateStatus_KitchenAccepts(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("PENDING", "PENDING")
	notifier := &mockNotifier{}
	router := setupOrderRouter(store, succeedingCreator(store), notifier)

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/status",
		tokenFor(t, "KITCHEN"), map[string]interface{}{"status": "PREPARING"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.orders[order.ID].Status != "PREPARING" {
		t.Errorf("stored status: got %s, want PREPARING", store.orders[order.ID].Status)
	}
	if notifier.calls != 1 {
		t.Errorf("notifier calls: got %d, want 1", notifier.calls)
	}
}

func TestOrderUpdateStatus_BoardCannotCancel(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("READY", "PENDING")
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/status",
		tokenFor(t, "BOARD"), map[string]interface{}{"status": "CANCELLED"})

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusForbidden, rr.Body.String())
	}
	if store.orders[order.ID].Status != "READY" {
		t.Errorf("stored status changed to %s", store.orders[order.ID].Status)
	}
}

func TestOrderUpdateStatus_KitchenCannotCancelPaid(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("PREPARING", "PAID")
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/status",
		tokenFor(t, "KITCHEN"), map[string]interface{}{"status": "CANCELLED"})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestOrderUpdateStatus_AdminMovesBackwards(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("READY", "PENDING")
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/status",
		tokenFor(t, "ADMIN"), map[string]interface{}{"status": "PENDING"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestOrderUpdateStatus_ConcurrentChangeConflicts(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("PENDING", "PENDING")
	store.forceStatusConflict = true
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/status",
		tokenFor(t, "KITCHEN"), map[string]interface{}{"status": "PREPARING"})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestOrderUpdateStatus_NotFound(t *testing.T) {
	store := newMockOrderHandlerStore()
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+uuid.NewString()+"/status",
		tokenFor(t, "ADMIN"), map[string]interface{}{"status": "PREPARING"})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderUpdateStatus_InvalidStatus(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("PENDING", "PENDING")
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/status",
		tokenFor(t, "ADMIN"), map[string]interface{}{"status": "FROZEN"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Admin list tests ---

func TestAdminList_StatusFilter(t *testing.T) {
	store := newMockOrderHandlerStore()
	store.addOrder("PENDING", "PENDING")
	store.addOrder("COMPLETED", "PAID")
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "GET", "/admin/orders?status=COMPLETED", tokenFor(t, "ADMIN"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 order, got %d", len(resp))
	}
	if resp[0]["status"] != "COMPLETED" {
		t.Errorf("status: got %v, want COMPLETED", resp[0]["status"])
	}
}

func TestAdminList_InvalidStatusFilter(t *testing.T) {
	store := newMockOrderHandlerStore()
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "GET", "/admin/orders?status=BOGUS", tokenFor(t, "ADMIN"), nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAdminList_DateRangeParams(t *testing.T) {
	store := newMockOrderHandlerStore()
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "GET",
		"/admin/orders?start=2026-08-01T00:00:00Z&end=2026-08-31T00:00:00Z&limit=10&offset=5",
		tokenFor(t, "ADMIN"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	if store.listParams == nil {
		t.Fatal("ListOrders was not called")
	}
	if !store.listParams.StartDate.Valid || !store.listParams.EndDate.Valid {
		t.Error("expected both date filters to be set")
	}
	if store.listParams.Limit != 10 {
		t.Errorf("limit: got %d, want 10", store.listParams.Limit)
	}
	if store.listParams.Offset != 5 {
		t.Errorf("offset: got %d, want 5", store.listParams.Offset)
	}
}

// --- Payment / delete / reset tests ---

func TestOrderUpdatePayment_Valid(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("SERVED", "CASH_PENDING")
	notifier := &mockNotifier{}
	router := setupOrderRouter(store, succeedingCreator(store), notifier)

	rr := doAuthRequest(t, router, "PATCH", "/admin/orders/"+order.ID.String()+"/payment",
		tokenFor(t, "ADMIN"), map[string]interface{}{"payment_status": "PAID"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.orders[order.ID].PaymentStatus != "PAID" {
		t.Errorf("payment_status: got %s, want PAID", store.orders[order.ID].PaymentStatus)
	}
	if notifier.calls != 1 {
		t.Errorf("notifier calls: got %d, want 1", notifier.calls)
	}
}

func TestOrderUpdatePayment_Invalid(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("SERVED", "PENDING")
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "PATCH", "/admin/orders/"+order.ID.String()+"/payment",
		tokenFor(t, "ADMIN"), map[string]interface{}{"payment_status": "MAYBE"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderDelete_Valid(t *testing.T) {
	store := newMockOrderHandlerStore()
	order := store.addOrder("CANCELLED", "PENDING")
	notifier := &mockNotifier{}
	router := setupOrderRouter(store, succeedingCreator(store), notifier)

	rr := doAuthRequest(t, router, "DELETE", "/admin/orders/"+order.ID.String(),
		tokenFor(t, "ADMIN"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if _, exists := store.orders[order.ID]; exists {
		t.Error("expected order to be removed")
	}
	if notifier.calls != 1 {
		t.Errorf("notifier calls: got %d, want 1", notifier.calls)
	}
}

func TestOrderResetNumbers(t *testing.T) {
	store := newMockOrderHandlerStore()
	router := setupOrderRouter(store, succeedingCreator(store), &mockNotifier{})

	rr := doAuthRequest(t, router, "POST", "/admin/orders/reset-numbers",
		tokenFor(t, "ADMIN"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !store.resetCalled {
		t.Error("expected ResetOrderNumbers to be called")
	}
}
