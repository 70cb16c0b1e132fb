package service

import (
	"errors"

	"github.com/marigold-cafe/api/internal/enum"
)

// Errors returned by transition validation.
var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotAllowedForRole = errors.New("transition not allowed for role")
	ErrPaidOrderCancel   = errors.New("cannot cancel a paid order")
)

// validTransitions maps each status to the statuses it may move to. Roles
// further restrict which of these a caller may perform.
var validTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusServed, enum.OrderStatusCancelled},
	enum.OrderStatusServed:    {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusCompleted: {},
	enum.OrderStatusCancelled: {},
}

// ValidateTransition checks that moving an order from current to next is
// legal for role, given the order's payment status. ADMIN may set any
// status, including reopening COMPLETED and CANCELLED orders.
func ValidateTransition(role, current, next, paymentStatus string) error {
	if !enum.ValidOrderStatus(next) {
		return ErrInvalidStatus
	}
	if current == next {
		return ErrInvalidTransition
	}

	if role == enum.RoleAdmin {
		return nil
	}

	allowed := false
	for _, s := range validTransitions[current] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}

	switch role {
	case enum.RoleKitchen:
		if next == enum.OrderStatusCancelled {
			if paymentStatus == enum.PaymentStatusPaid {
				return ErrPaidOrderCancel
			}
			return nil
		}
		if current == enum.OrderStatusPending && next == enum.OrderStatusPreparing {
			return nil
		}
		if current == enum.OrderStatusPreparing && next == enum.OrderStatusReady {
			return nil
		}
		return ErrNotAllowedForRole
	case enum.RoleBoard:
		if current == enum.OrderStatusReady && next == enum.OrderStatusServed {
			return nil
		}
		return ErrNotAllowedForRole
	default:
		return ErrNotAllowedForRole
	}
}
