package service_test

import (
	"errors"
	"testing"

	"github.com/marigold-cafe/api/internal/service"
)

func TestKitchenTransitions(t *testing.T) {
	tests := []struct {
		name          string
		current, next string
		payment       string
		wantErr       error
	}{
		{"start preparing", "PENDING", "PREPARING", "PENDING", nil},
		{"mark ready", "PREPARING", "READY", "PENDING", nil},
		{"skip to served", "PENDING", "SERVED", "PENDING", service.ErrInvalidTransition},
		{"skip to ready", "PENDING", "READY", "PENDING", service.ErrInvalidTransition},
		{"serve from ready", "READY", "SERVED", "PENDING", service.ErrNotAllowedForRole},
		{"cancel unpaid", "PENDING", "CANCELLED", "PENDING", nil},
		{"cancel cash pending", "PREPARING", "CANCELLED", "CASH_PENDING", nil},
		{"cancel paid", "PREPARING", "CANCELLED", "PAID", service.ErrPaidOrderCancel},
		{"reopen completed", "COMPLETED", "PENDING", "PAID", service.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateTransition("KITCHEN", tt.current, tt.next, tt.payment)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBoardTransitions(t *testing.T) {
	if err := service.ValidateTransition("BOARD", "READY", "SERVED", "PAID"); err != nil {
		t.Errorf("board READY->SERVED: %v", err)
	}
	if err := service.ValidateTransition("BOARD", "PENDING", "PREPARING", "PENDING"); !errors.Is(err, service.ErrNotAllowedForRole) {
		t.Errorf("board PENDING->PREPARING: got %v, want role error", err)
	}
	if err := service.ValidateTransition("BOARD", "READY", "CANCELLED", "PENDING"); !errors.Is(err, service.ErrNotAllowedForRole) {
		t.Errorf("board cancel: got %v, want role error", err)
	}
}

func TestAdminTransitions(t *testing.T) {
	// Admin may move between any states, backwards and out of terminal
	// ones included.
	if err := service.ValidateTransition("ADMIN", "READY", "PREPARING", "PAID"); err != nil {
		t.Errorf("admin READY->PREPARING: %v", err)
	}
	if err := service.ValidateTransition("ADMIN", "PENDING", "COMPLETED", "PAID"); err != nil {
		t.Errorf("admin PENDING->COMPLETED: %v", err)
	}
	if err := service.ValidateTransition("ADMIN", "PREPARING", "CANCELLED", "PAID"); err != nil {
		t.Errorf("admin cancel paid: %v", err)
	}
	if err := service.ValidateTransition("ADMIN", "CANCELLED", "PENDING", "PENDING"); err != nil {
		t.Errorf("admin reopening cancelled order: %v", err)
	}
	if err := service.ValidateTransition("ADMIN", "COMPLETED", "SERVED", "PAID"); err != nil {
		t.Errorf("admin reopening completed order: %v", err)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	if err := service.ValidateTransition("ADMIN", "PENDING", "FLYING", "PENDING"); !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("got %v, want invalid status", err)
	}
}

func TestTransitionRejectsNoop(t *testing.T) {
	if err := service.ValidateTransition("ADMIN", "PENDING", "PENDING", "PENDING"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("got %v, want invalid transition", err)
	}
}

func TestCustomerHasNoTransitions(t *testing.T) {
	if err := service.ValidateTransition("CUSTOMER", "PENDING", "PREPARING", "PENDING"); !errors.Is(err, service.ErrNotAllowedForRole) {
		t.Errorf("got %v, want role error", err)
	}
}
