// Package shopstatus decides whether the cafe is accepting orders right now.
package shopstatus

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is what the public shop-status endpoint returns.
type Status struct {
	IsOpen       bool   `json:"is_open"`
	ManuallyOpen bool   `json:"manually_open"`
	WithinHours  bool   `json:"within_hours"`
	OpenTime     string `json:"open_time"`
	CloseTime    string `json:"close_time"`
}

// parseClock converts "HH:MM" to minutes since midnight. An invalid string
// is an error, not a silent zero.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// WithinHours reports whether now falls inside the [open, close) window.
// A close of "00:00" means end of day. When close < open the window wraps
// past midnight, so 22:00-02:00 covers 23:30 but not 10:00.
func WithinHours(openTime, closeTime string, now time.Time) (bool, error) {
	open, err := parseClock(openTime)
	if err != nil {
		return false, err
	}
	close, err := parseClock(closeTime)
	if err != nil {
		return false, err
	}
	if close == 0 {
		close = 24 * 60
	}

	cur := now.Hour()*60 + now.Minute()
	if close < open {
		return cur >= open || cur < close, nil
	}
	return cur >= open && cur < close, nil
}

// Evaluate combines the manual toggle with the opening hours. Unparseable
// hours fall back to within-hours so a bad setting cannot lock the shop.
func Evaluate(openTime, closeTime string, manuallyOpen bool, now time.Time) Status {
	within, err := WithinHours(openTime, closeTime, now)
	if err != nil {
		within = true
	}
	return Status{
		IsOpen:       manuallyOpen && within,
		ManuallyOpen: manuallyOpen,
		WithinHours:  within,
		OpenTime:     openTime,
		CloseTime:    closeTime,
	}
}
