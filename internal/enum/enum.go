package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusServed    = "SERVED"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusPending       = "PENDING"
	PaymentStatusPaid          = "PAID"
	PaymentStatusCashPending   = "CASH_PENDING"
	PaymentStatusCardPending   = "CARD_PENDING"
	PaymentStatusChequePending = "CHEQUE_PENDING"
	PaymentStatusRefunded      = "REFUNDED"
)

// ── Roles ──

const (
	RoleAdmin   = "ADMIN"
	RoleKitchen = "KITCHEN"
	RoleBoard   = "BOARD"

	// RoleCustomer is issued by the order PIN gate; it never appears in
	// staff_users.
	RoleCustomer = "CUSTOMER"
)

// ── Attributes (CHECK constrained in DB) ──

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
)

const (
	FoodTypeVeg    = "VEG"
	FoodTypeNonVeg = "NON_VEG"
	FoodTypeEgg    = "EGG"
)

const (
	SpiceTypeNotSpicy = "NOT_SPICY"
	SpiceTypeMild     = "MILD"
	SpiceTypeSpicy    = "SPICY"
)

// ValidOrderStatus reports whether s is one of the six order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusServed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is one of the six payment statuses.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCashPending,
		PaymentStatusCardPending, PaymentStatusChequePending, PaymentStatusRefunded:
		return true
	}
	return false
}

func ValidOrderType(s string) bool {
	return s == OrderTypeDineIn || s == OrderTypeTakeaway
}

func ValidFoodType(s string) bool {
	switch s {
	case FoodTypeVeg, FoodTypeNonVeg, FoodTypeEgg:
		return true
	}
	return false
}

func ValidSpiceType(s string) bool {
	switch s {
	case SpiceTypeNotSpicy, SpiceTypeMild, SpiceTypeSpicy:
		return true
	}
	return false
}

func ValidStaffRole(s string) bool {
	switch s {
	case RoleAdmin, RoleKitchen, RoleBoard:
		return true
	}
	return false
}
