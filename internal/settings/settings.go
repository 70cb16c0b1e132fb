// Package settings maps the system_settings key/value rows onto a typed
// aggregate so callers never deal with raw keys.
package settings

import (
	"context"

	"github.com/marigold-cafe/api/internal/database"
)

const (
	KeyCafeName       = "cafe_name"
	KeyCafePhone      = "cafe_phone"
	KeyCafeAddress    = "cafe_address"
	KeyWhatsAppNumber = "whatsapp_number"
	KeyOpenTime       = "open_time"
	KeyCloseTime      = "close_time"
	KeyManuallyOpen   = "is_manually_open"
	KeyOrderPINHash   = "order_pin_hash"
	KeyKitchenPINHash = "kitchen_pin_hash"
	KeySignupCodeHash = "signup_code_hash"
)

// Settings is the typed view of the system_settings table. Hash fields hold
// bcrypt hashes, never the plain PINs.
type Settings struct {
	CafeName       string
	CafePhone      string
	CafeAddress    string
	WhatsAppNumber string
	OpenTime       string
	CloseTime      string
	ManuallyOpen   bool
	OrderPINHash   string
	KitchenPINHash string
	SignupCodeHash string
}

// Defaults returns the permissive fallback used when rows are missing so a
// fresh install can take orders before anyone touches the admin screen.
func Defaults() Settings {
	return Settings{
		CafeName:     "Marigold Cafe",
		OpenTime:     "06:00",
		CloseTime:    "00:00",
		ManuallyOpen: true,
	}
}

type Store interface {
	ListSettings(ctx context.Context) ([]database.SystemSetting, error)
}

// Load reads every settings row and overlays it on the defaults. Unknown
// keys are ignored.
func Load(ctx context.Context, store Store) (Settings, error) {
	s := Defaults()

	rows, err := store.ListSettings(ctx)
	if err != nil {
		return s, err
	}
	for _, row := range rows {
		s.apply(row.Key, row.Value)
	}
	return s, nil
}

func (s *Settings) apply(key, value string) {
	switch key {
	case KeyCafeName:
		s.CafeName = value
	case KeyCafePhone:
		s.CafePhone = value
	case KeyCafeAddress:
		s.CafeAddress = value
	case KeyWhatsAppNumber:
		s.WhatsAppNumber = value
	case KeyOpenTime:
		s.OpenTime = value
	case KeyCloseTime:
		s.CloseTime = value
	case KeyManuallyOpen:
		s.ManuallyOpen = value == "true"
	case KeyOrderPINHash:
		s.OrderPINHash = value
	case KeyKitchenPINHash:
		s.KitchenPINHash = value
	case KeySignupCodeHash:
		s.SignupCodeHash = value
	}
}

// Public returns the subset safe to expose without authentication.
func (s Settings) Public() map[string]string {
	return map[string]string{
		KeyCafeName:       s.CafeName,
		KeyCafePhone:      s.CafePhone,
		KeyCafeAddress:    s.CafeAddress,
		KeyWhatsAppNumber: s.WhatsAppNumber,
		KeyOpenTime:       s.OpenTime,
		KeyCloseTime:      s.CloseTime,
	}
}

// EditableKeys lists the keys the admin settings screen may write directly.
// The hash keys are managed through dedicated endpoints.
func EditableKeys() []string {
	return []string{
		KeyCafeName, KeyCafePhone, KeyCafeAddress, KeyWhatsAppNumber,
		KeyOpenTime, KeyCloseTime, KeyManuallyOpen,
	}
}

// Editable reports whether admins may set the key through the generic
// settings endpoint.
func Editable(key string) bool {
	for _, k := range EditableKeys() {
		if k == key {
			return true
		}
	}
	return false
}
