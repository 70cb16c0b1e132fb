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
	"github.com/shopspring/decimal"

	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/enum"
)

var errNegativePrice = errors.New("price must not be negative")

// MenuStore defines the database methods needed by menu item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListActiveCategories(ctx context.Context) ([]database.MenuCategory, error)
	ListActiveMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListAllMenuItems(ctx context.Context) ([]database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemActive(ctx context.Context, arg database.SetMenuItemActiveParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// MenuHandler serves the public menu and the admin menu item CRUD.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterAdminRoutes registers the CRUD endpoints, mounted at
// /admin/menu-items behind the ADMIN role check.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.ListAll)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/active", h.SetActive)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	FoodType     string `json:"food_type"`
	SpiceType    string `json:"spice_type"`
	ImageURL     string `json:"image_url"`
	Subcategory  string `json:"subcategory"`
	DisplayOrder int32  `json:"display_order"`
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

type menuItemResponse struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"category_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	Price        string    `json:"price"`
	FoodType     string    `json:"food_type"`
	IsVeg        bool      `json:"is_veg"`
	SpiceType    string    `json:"spice_type"`
	IsActive     bool      `json:"is_active"`
	ImageURL     *string   `json:"image_url"`
	Subcategory  *string   `json:"subcategory"`
	DisplayOrder int32     `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type menuCategoryResponse struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Icon         *string            `json:"icon"`
	DisplayOrder int32              `json:"display_order"`
	Items        []menuItemResponse `json:"items"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:           m.ID,
		CategoryID:   m.CategoryID,
		Name:         m.Name,
		Price:        numericToString(m.Price),
		FoodType:     m.FoodType,
		IsVeg:        m.IsVeg,
		SpiceType:    m.SpiceType,
		IsActive:     m.IsActive,
		DisplayOrder: m.DisplayOrder,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Description.Valid {
		resp.Description = &m.Description.String
	}
	if m.ImageURL.Valid {
		resp.ImageURL = &m.ImageURL.String
	}
	if m.Subcategory.Valid {
		resp.Subcategory = &m.Subcategory.String
	}
	return resp
}

// --- Handlers ---

// Menu returns the public customer menu: active categories in display
// order, each with its active items.
func (h *MenuHandler) Menu(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListActiveCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: menu: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListActiveMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: menu: list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byCategory := make(map[uuid.UUID][]menuItemResponse)
	for _, m := range items {
		byCategory[m.CategoryID] = append(byCategory[m.CategoryID], toMenuItemResponse(m))
	}

	resp := make([]menuCategoryResponse, 0, len(categories))
	for _, c := range categories {
		cr := menuCategoryResponse{
			ID:           c.ID,
			Name:         c.Name,
			DisplayOrder: c.DisplayOrder,
			Items:        byCategory[c.ID],
		}
		if cr.Items == nil {
			cr.Items = []menuItemResponse{}
		}
		if c.Icon.Valid {
			cr.Icon = &c.Icon.String
		}
		resp = append(resp, cr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListAll returns every menu item including inactive ones.
func (h *MenuHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListAllMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := buildMenuItemParams(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), *params)
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update modifies an existing menu item.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := buildMenuItemParams(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:           itemID,
		CategoryID:   params.CategoryID,
		Name:         params.Name,
		Description:  params.Description,
		Price:        params.Price,
		FoodType:     params.FoodType,
		IsVeg:        params.IsVeg,
		SpiceType:    params.SpiceType,
		ImageURL:     params.ImageURL,
		Subcategory:  params.Subcategory,
		DisplayOrder: params.DisplayOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// SetActive toggles an item's availability without editing it.
func (h *MenuHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.store.SetMenuItemActive(r.Context(), database.SetMenuItemActiveParams{
		ID:       itemID,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: set menu item active: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes a menu item. Past orders keep their snapshotted copies.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	_, err = h.store.DeleteMenuItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "menu item deleted"})
}

// --- Helpers ---

// buildMenuItemParams validates a request and converts it to insert params.
// Returns a non-empty message describing the first problem found.
func buildMenuItemParams(req menuItemRequest) (*database.CreateMenuItemParams, string) {
	if req.Name == "" {
		return nil, "name is required"
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, "invalid category_id"
	}
	if !enum.ValidFoodType(req.FoodType) {
		return nil, "invalid food_type"
	}
	spiceType := req.SpiceType
	if spiceType == "" {
		spiceType = enum.SpiceTypeNotSpicy
	}
	if !enum.ValidSpiceType(spiceType) {
		return nil, "invalid spice_type"
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			return nil, "price must not be negative"
		}
		return nil, "invalid price"
	}

	params := database.CreateMenuItemParams{
		CategoryID:   categoryID,
		Name:         req.Name,
		Price:        price,
		FoodType:     req.FoodType,
		IsVeg:        req.FoodType == enum.FoodTypeVeg,
		SpiceType:    spiceType,
		DisplayOrder: req.DisplayOrder,
	}
	if req.Description != "" {
		params.Description = pgtype.Text{String: req.Description, Valid: true}
	}
	if req.ImageURL != "" {
		params.ImageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}
	if req.Subcategory != "" {
		params.Subcategory = pgtype.Text{String: req.Subcategory, Valid: true}
	}
	return &params, ""
}

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
