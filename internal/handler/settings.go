package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/settings"
	"github.com/marigold-cafe/api/internal/shopstatus"
)

// SettingsStore defines the database methods needed by settings handlers.
type SettingsStore interface {
	ListSettings(ctx context.Context) ([]database.SystemSetting, error)
	UpsertSetting(ctx context.Context, arg database.UpsertSettingParams) (database.SystemSetting, error)
}

// SettingsHandler serves the café configuration: the public shop status,
// the admin key/value screen and the PIN management endpoint.
type SettingsHandler struct {
	store SettingsStore
	now   func() time.Time
}

func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store, now: time.Now}
}

// RegisterPublicRoutes registers the unauthenticated endpoints.
func (h *SettingsHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/shop-status", h.ShopStatus)
	r.Get("/settings", h.Public)
}

// RegisterAdminRoutes registers the back-office endpoints, mounted at
// /admin/settings behind the ADMIN role check.
func (h *SettingsHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/", h.Update)
	r.Put("/pins", h.UpdatePins)
}

type updateSettingsRequest map[string]string

type updatePinsRequest struct {
	OrderPin   string `json:"order_pin"`
	KitchenPin string `json:"kitchen_pin"`
	SignupCode string `json:"signup_code"`
}

// ShopStatus reports whether the café is currently taking orders, combining
// the manual toggle with the configured hours. An unreadable settings table
// falls back to the permissive defaults instead of failing the request.
func (h *SettingsHandler) ShopStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := settings.Load(r.Context(), h.store)
	if err != nil {
		log.Printf("ERROR: shop status: load settings, using defaults: %v", err)
	}

	status := shopstatus.Evaluate(cfg.OpenTime, cfg.CloseTime, cfg.ManuallyOpen, h.now())
	writeJSON(w, http.StatusOK, status)
}

// Public returns the settings subset safe to show without authentication.
func (h *SettingsHandler) Public(w http.ResponseWriter, r *http.Request) {
	cfg, err := settings.Load(r.Context(), h.store)
	if err != nil {
		log.Printf("ERROR: public settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, cfg.Public())
}

// List returns the editable settings for the admin screen. Hash values
// never leave the server; their keys are simply absent.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	cfg, err := settings.Load(r.Context(), h.store)
	if err != nil {
		log.Printf("ERROR: list settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := cfg.Public()
	resp[settings.KeyManuallyOpen] = boolString(cfg.ManuallyOpen)
	writeJSON(w, http.StatusOK, resp)
}

// Update writes a batch of editable settings. Keys outside the editable
// set are rejected before anything is written.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no settings provided"})
		return
	}

	for key := range req {
		if !settings.Editable(key) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown setting: " + key})
			return
		}
	}

	for key, value := range req {
		if _, err := h.store.UpsertSetting(r.Context(), database.UpsertSettingParams{Key: key, Value: value}); err != nil {
			log.Printf("ERROR: upsert setting %s: %v", key, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "settings updated"})
}

// UpdatePins rotates the order PIN, kitchen PIN and signup code. Only the
// fields present in the request change; each is stored as a bcrypt hash.
func (h *SettingsHandler) UpdatePins(w http.ResponseWriter, r *http.Request) {
	var req updatePinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.OrderPin == "" && req.KitchenPin == "" && req.SignupCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to update"})
		return
	}

	updates := map[string]string{}
	if req.OrderPin != "" {
		updates[settings.KeyOrderPINHash] = req.OrderPin
	}
	if req.KitchenPin != "" {
		updates[settings.KeyKitchenPINHash] = req.KitchenPin
	}
	if req.SignupCode != "" {
		updates[settings.KeySignupCodeHash] = req.SignupCode
	}

	for key, secret := range updates {
		if len(secret) < 4 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pin must be at least 4 characters"})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("ERROR: hash pin: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if _, err := h.store.UpsertSetting(r.Context(), database.UpsertSettingParams{Key: key, Value: string(hash)}); err != nil {
			log.Printf("ERROR: upsert %s: %v", key, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "pins updated"})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
