package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/invoice"
	"github.com/marigold-cafe/api/internal/settings"
)

// InvoiceStore defines the database methods needed by the invoice handler.
type InvoiceStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListSettings(ctx context.Context) ([]database.SystemSetting, error)
}

// InvoiceHandler renders printable receipts for the back office.
type InvoiceHandler struct {
	store InvoiceStore
}

func NewInvoiceHandler(store InvoiceStore) *InvoiceHandler {
	return &InvoiceHandler{store: store}
}

func (h *InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{id}/invoice", h.Render)
}

// Render returns the invoice as HTML. With ?download=1 the response
// carries a Content-Disposition header so the browser saves it instead.
func (h *InvoiceHandler) Render(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("ERROR: invoice: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: invoice: list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	cfg, err := settings.Load(r.Context(), h.store)
	if err != nil {
		log.Printf("ERROR: invoice: load settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	html, err := invoice.Render(order, items, cfg.CafeName, cfg.CafePhone, cfg.CafeAddress)
	if err != nil {
		log.Printf("ERROR: invoice: render: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.Filename(order)))
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
