package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/marigold-cafe/api/internal/config"
	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/enum"
	"github.com/marigold-cafe/api/internal/handler"
	mw "github.com/marigold-cafe/api/internal/middleware"
	"github.com/marigold-cafe/api/internal/service"
	"github.com/marigold-cafe/api/internal/storage"
	"github.com/marigold-cafe/api/internal/view"
	"github.com/marigold-cafe/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// The three order surfaces sit behind their own role gates: customers
// behind the order PIN token, kitchen and board behind staff tokens,
// and the back office behind ADMIN.
func New(cfg *config.Config, queries *database.Queries, pool service.TxBeginner, hub *ws.Hub, dispatcher *view.Dispatcher, limiter *mw.RateLimiter, objects *storage.S3) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes: the menu, the shop status and the WhatsApp cart
	// message need no token at all.
	menuHandler := handler.NewMenuHandler(queries)
	r.Get("/menu", menuHandler.Menu)

	settingsHandler := handler.NewSettingsHandler(queries)
	settingsHandler.RegisterPublicRoutes(r)

	cartHandler := handler.NewCartHandler(queries)
	cartHandler.RegisterRoutes(r)

	// Auth routes, rate-limited per client IP so the four-digit PINs
	// cannot be brute-forced.
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(limiter, mw.RealIP, 20, time.Minute))
		authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
		authHandler.RegisterRoutes(r)
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore)
	orderHandler := handler.NewOrderHandler(queries, orderService, dispatcher)

	// Customer routes: placing an order and checking on it require the
	// order PIN token.
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.RoleCustomer, enum.RoleAdmin))
		orderHandler.RegisterCustomerRoutes(r)
	})

	// Staff routes: the kitchen display, the pickup board and the status
	// mutation. Per-transition role checks happen in the handler.
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.RoleKitchen, enum.RoleBoard, enum.RoleAdmin))
		orderHandler.RegisterStaffRoutes(r)
	})

	// Admin back office
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.RoleAdmin))

		r.Route("/admin", func(r chi.Router) {
			categoryHandler := handler.NewCategoryHandler(queries)
			r.Route("/categories", categoryHandler.RegisterRoutes)

			r.Route("/menu-items", func(r chi.Router) {
				menuHandler.RegisterAdminRoutes(r)

				var store handler.ObjectStorage
				if objects != nil {
					store = objects
				}
				uploadHandler := handler.NewUploadHandler(store)
				uploadHandler.RegisterRoutes(r)
			})

			r.Route("/orders", func(r chi.Router) {
				orderHandler.RegisterAdminRoutes(r)

				invoiceHandler := handler.NewInvoiceHandler(queries)
				invoiceHandler.RegisterRoutes(r)
			})

			r.Route("/settings", settingsHandler.RegisterAdminRoutes)

			staffHandler := handler.NewStaffHandler(queries)
			r.Route("/staff", staffHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(queries)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	return r
}
