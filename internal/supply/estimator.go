// Package supply estimates supplier lead times.
package supply

import (
	"context"
	"log/slog"
	"time"

	"github.com/paperdesk/backoffice/internal/shared"
)

// Estimate is a projected supplier delivery.
type Estimate struct {
	OrderDate    string `json:"order_date"`
	Quantity     int64  `json:"quantity"`
	LeadDays     int    `json:"lead_days"`
	DeliveryDate string `json:"delivery_date"`
	// Degraded is set when the order date could not be parsed and the
	// estimate was computed from the current date instead.
	Degraded bool `json:"degraded"`
}

// Estimator applies the quantity lead-time tiers.
type Estimator struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewEstimator builds Estimator. now defaults to time.Now.
func NewEstimator(now func() time.Time, logger *slog.Logger) *Estimator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{now: now, logger: logger}
}

// LeadDays returns the supplier lead time for quantity units.
func LeadDays(quantity int64) int {
	switch {
	case quantity <= 10:
		return 0
	case quantity <= 100:
		return 1
	case quantity <= 1000:
		return 4
	default:
		return 7
	}
}

// Estimate projects the delivery date for an order placed on orderDate. A
// malformed date falls back to today and marks the result degraded.
func (e *Estimator) Estimate(ctx context.Context, orderDate string, quantity int64) Estimate {
	result := Estimate{OrderDate: orderDate, Quantity: quantity, LeadDays: LeadDays(quantity)}

	base, err := parseBase(orderDate)
	if err != nil {
		e.logger.WarnContext(ctx, "invalid order date, estimating from today",
			slog.String("order_date", orderDate), slog.Any("error", err))
		now := e.now()
		base = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		result.Degraded = true
	}
	result.DeliveryDate = shared.FormatDate(base.AddDate(0, 0, result.LeadDays))
	return result
}

func parseBase(orderDate string) (time.Time, error) {
	date, err := shared.ParseDate(orderDate)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(shared.DateLayout, date)
}
