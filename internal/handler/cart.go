package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marigold-cafe/api/internal/cart"
	"github.com/marigold-cafe/api/internal/settings"
)

// CartHandler builds the WhatsApp order message for customers who prefer
// to send their order by chat. Nothing is persisted.
type CartHandler struct {
	store settings.Store
}

func NewCartHandler(store settings.Store) *CartHandler {
	return &CartHandler{store: store}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Post("/cart/message", h.Message)
}

type cartMessageRequest struct {
	CustomerName string            `json:"customer_name"`
	OrderType    string            `json:"order_type"`
	TableNumber  string            `json:"table_number"`
	Items        []cartMessageItem `json:"items"`
}

type cartMessageItem struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

type cartMessageResponse struct {
	Message      string `json:"message"`
	WhatsAppLink string `json:"whatsapp_link"`
}

func (h *CartHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req cartMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	c := cart.New()
	for _, it := range req.Items {
		if it.Name == "" || it.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "each item needs a name and a positive quantity"})
			return
		}
		price, err := cart.ParsePrice(it.Price)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price for " + it.Name})
			return
		}
		for n := 0; n < it.Quantity; n++ {
			c.Add(it.Name, it.Name, price)
		}
	}

	cfg, err := settings.Load(r.Context(), h.store)
	if err != nil {
		log.Printf("ERROR: cart message: load settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if cfg.WhatsAppNumber == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "whatsapp ordering is not configured"})
		return
	}

	msg := c.OrderMessage(cfg.CafeName, req.OrderType, req.TableNumber, req.CustomerName)
	writeJSON(w, http.StatusOK, cartMessageResponse{
		Message:      msg,
		WhatsAppLink: cart.WhatsAppLink(cfg.WhatsAppNumber, msg),
	})
}
