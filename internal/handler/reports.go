package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/marigold-cafe/api/internal/database"
)

// ReportStore defines the database methods needed by report handlers.
type ReportStore interface {
	GetDailySales(ctx context.Context, arg database.GetDailySalesParams) ([]database.DailySalesRow, error)
}

// ReportHandler serves the admin sales reports.
type ReportHandler struct {
	store ReportStore
	now   func() time.Time
}

func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store, now: time.Now}
}

// RegisterRoutes registers the report endpoints, mounted at /admin/reports
// behind the ADMIN role check.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-sales", h.DailySales)
}

type dailySalesDay struct {
	Date       string `json:"date"`
	OrderCount int64  `json:"order_count"`
	Revenue    string `json:"revenue"`
}

type dailySalesResponse struct {
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	TotalOrders  int64           `json:"total_orders"`
	TotalRevenue string          `json:"total_revenue"`
	Days         []dailySalesDay `json:"days"`
}

// DailySales aggregates completed orders per day. ?start and ?end take
// YYYY-MM-DD; the default window is the last 7 days, end inclusive.
func (h *ReportHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	end := h.now().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -6)
	if s := q.Get("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start date"})
			return
		}
		start = t
	}
	if s := q.Get("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end date"})
			return
		}
		end = t
	}
	if end.Before(start) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end date is before start date"})
		return
	}

	rows, err := h.store.GetDailySales(r.Context(), database.GetDailySalesParams{
		StartDate: start,
		EndDate:   end.AddDate(0, 0, 1),
	})
	if err != nil {
		log.Printf("ERROR: daily sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dailySalesResponse{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Days:      make([]dailySalesDay, len(rows)),
	}
	totalRevenue := decimal.Zero
	for i, row := range rows {
		revenue := numericToString(row.Revenue)
		resp.Days[i] = dailySalesDay{
			Date:       row.SaleDate.Time.Format("2006-01-02"),
			OrderCount: row.OrderCount,
			Revenue:    revenue,
		}
		resp.TotalOrders += row.OrderCount
		if d, err := decimal.NewFromString(revenue); err == nil {
			totalRevenue = totalRevenue.Add(d)
		}
	}
	resp.TotalRevenue = totalRevenue.StringFixed(2)

	writeJSON(w, http.StatusOK, resp)
}
