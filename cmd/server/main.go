package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marigold-cafe/api/internal/config"
	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/enum"
	"github.com/marigold-cafe/api/internal/middleware"
	"github.com/marigold-cafe/api/internal/router"
	"github.com/marigold-cafe/api/internal/storage"
	"github.com/marigold-cafe/api/internal/view"
	"github.com/marigold-cafe/api/internal/ws"
)

// boardPollInterval keeps the pickup board refreshing even without order
// traffic, so served orders age off the screen.
const boardPollInterval = 5 * time.Second

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	kitchenSync := view.NewSynchronizer(ws.TopicKitchen, fetchByStatuses(queries,
		enum.OrderStatusPending, enum.OrderStatusPreparing), hub, 0)
	boardSync := view.NewSynchronizer(ws.TopicBoard, fetchByStatuses(queries,
		enum.OrderStatusReady), hub, boardPollInterval)
	adminSync := view.NewSynchronizer(ws.TopicAdmin, fetchByStatuses(queries,
		enum.OrderStatusPending, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusServed), hub, 0)

	go kitchenSync.Run(ctx)
	go boardSync.Run(ctx)
	go adminSync.Run(ctx)

	dispatcher := view.NewDispatcher(kitchenSync, boardSync, adminSync)

	limiter := middleware.NewRateLimiter()
	go limiter.CleanupLoop(ctx, 10*time.Minute)

	var objects *storage.S3
	if cfg.S3Bucket != "" {
		objects, err = storage.NewS3(ctx, cfg)
		if err != nil {
			log.Fatalf("init object storage: %v", err)
		}
	} else {
		log.Println("S3_BUCKET not set, image uploads disabled")
	}

	r := router.New(cfg, queries, pool, hub, dispatcher, limiter, objects)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}

// fetchByStatuses builds the FetchFunc for a display topic: the orders in
// the given statuses, each with its snapshotted items.
func fetchByStatuses(queries *database.Queries, statuses ...string) view.FetchFunc {
	return func(ctx context.Context) ([]view.OrderWithItems, error) {
		orders, err := queries.ListOrdersByStatuses(ctx, statuses)
		if err != nil {
			return nil, err
		}

		out := make([]view.OrderWithItems, 0, len(orders))
		for _, o := range orders {
			items, err := queries.ListOrderItemsByOrder(ctx, o.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, view.OrderWithItems{Order: o, Items: items})
		}
		return out, nil
	}
}
