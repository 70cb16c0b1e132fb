// Package view keeps the kitchen, board and admin displays in sync. Each
// display topic gets a Synchronizer that re-reads its filtered order set
// whenever an order mutates and broadcasts the fresh set over the hub,
// flagging orders seen for the first time so clients can chime exactly once.
package view

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/ws"
)

// OrderWithItems is one order in a display's filtered set.
type OrderWithItems struct {
	Order database.Order
	Items []database.OrderItem
}

// FetchFunc loads the current filtered order set for a topic.
type FetchFunc func(ctx context.Context) ([]OrderWithItems, error)

// Broadcaster is the hub surface the synchronizer needs.
type Broadcaster interface {
	BroadcastToTopic(topic string, event ws.Event)
}

type itemPayload struct {
	ID                  uuid.UUID `json:"id"`
	ItemName            string    `json:"item_name"`
	ItemPrice           string    `json:"item_price"`
	IsVeg               bool      `json:"is_veg"`
	Quantity            int32     `json:"quantity"`
	SpecialInstructions string    `json:"special_instructions,omitempty"`
}

type orderPayload struct {
	ID            uuid.UUID     `json:"id"`
	OrderNumber   int32         `json:"order_number"`
	OrderType     string        `json:"order_type"`
	TableNumber   string        `json:"table_number,omitempty"`
	CustomerName  string        `json:"customer_name,omitempty"`
	Status        string        `json:"status"`
	PaymentStatus string        `json:"payment_status"`
	Total         string        `json:"total"`
	CreatedAt     time.Time     `json:"created_at"`
	Items         []itemPayload `json:"items"`
}

type refreshPayload struct {
	Orders      []orderPayload `json:"orders"`
	NewOrderIDs []uuid.UUID    `json:"new_order_ids"`
}

// Synchronizer watches one topic's filtered order set.
type Synchronizer struct {
	topic  string
	fetch  FetchFunc
	hub    Broadcaster
	poll   time.Duration // 0 disables polling
	notify chan struct{}
	seen   map[uuid.UUID]bool
}

// NewSynchronizer creates a synchronizer for a topic. A non-zero poll
// interval adds a timed refresh on top of mutation notifications; the
// board uses this so served orders age off without traffic.
func NewSynchronizer(topic string, fetch FetchFunc, hub Broadcaster, poll time.Duration) *Synchronizer {
	return &Synchronizer{
		topic:  topic,
		fetch:  fetch,
		hub:    hub,
		poll:   poll,
		notify: make(chan struct{}, 1),
		seen:   make(map[uuid.UUID]bool),
	}
}

// Notify wakes the synchronizer after an order mutation. Never blocks;
// refreshes coalesce when notifications arrive faster than fetches.
func (s *Synchronizer) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Run drives the refresh loop until ctx is cancelled. The first fetch
// primes the seen set without flagging anything new, so a display that
// reconnects does not replay chimes for orders already on screen.
func (s *Synchronizer) Run(ctx context.Context) {
	s.refresh(ctx, true)

	var tick <-chan time.Time
	if s.poll > 0 {
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
			s.refresh(ctx, false)
		case <-tick:
			s.refresh(ctx, false)
		}
	}
}

func (s *Synchronizer) refresh(ctx context.Context, prime bool) {
	orders, err := s.fetch(ctx)
	if err != nil {
		log.Printf("ERROR: view %s: fetch: %v", s.topic, err)
		return
	}

	current := make(map[uuid.UUID]bool, len(orders))
	newIDs := []uuid.UUID{}
	for _, o := range orders {
		current[o.Order.ID] = true
		if !prime && !s.seen[o.Order.ID] {
			newIDs = append(newIDs, o.Order.ID)
		}
	}
	// The seen set tracks exactly the current filtered set, so an order
	// that leaves and later re-enters the view flags as new again.
	s.seen = current

	payload, err := json.Marshal(refreshPayload{
		Orders:      toPayload(orders),
		NewOrderIDs: newIDs,
	})
	if err != nil {
		log.Printf("ERROR: view %s: marshal: %v", s.topic, err)
		return
	}

	s.hub.BroadcastToTopic(s.topic, ws.Event{
		Type:    "view.refresh",
		Payload: payload,
	})
}

func toPayload(orders []OrderWithItems) []orderPayload {
	out := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		p := orderPayload{
			ID:            o.Order.ID,
			OrderNumber:   o.Order.OrderNumber,
			OrderType:     o.Order.OrderType,
			Status:        o.Order.Status,
			PaymentStatus: o.Order.PaymentStatus,
			Total:         numericToString(o.Order.Total),
		}
		if o.Order.TableNumber.Valid {
			p.TableNumber = o.Order.TableNumber.String
		}
		if o.Order.CustomerName.Valid {
			p.CustomerName = o.Order.CustomerName.String
		}
		p.CreatedAt = o.Order.CreatedAt
		for _, it := range o.Items {
			ip := itemPayload{
				ID:        it.ID,
				ItemName:  it.ItemName,
				ItemPrice: numericToString(it.ItemPrice),
				IsVeg:     it.IsVeg,
				Quantity:  it.Quantity,
			}
			if it.SpecialInstructions.Valid {
				ip.SpecialInstructions = it.SpecialInstructions.String
			}
			p.Items = append(p.Items, ip)
		}
		out = append(out, p)
	}
	return out
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

// Dispatcher fans a single order-changed signal out to every synchronizer.
type Dispatcher struct {
	syncs []*Synchronizer
}

func NewDispatcher(syncs ...*Synchronizer) *Dispatcher {
	return &Dispatcher{syncs: syncs}
}

// OrderChanged notifies every display that an order mutated.
func (d *Dispatcher) OrderChanged() {
	for _, s := range d.syncs {
		s.Notify()
	}
}
