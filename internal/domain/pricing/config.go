// Package pricing turns the line items of a working quote into sale totals,
// a cost breakdown and a profit margin, and computes the tax-inclusive totals
// of the customer-facing quote document.
//
// Everything here is a pure function of its inputs. Amounts are never rounded
// inside the engine; use Round2 when presenting or persisting a value.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the business constants used by the engine.
type Config struct {
	VATRate              float64 // applied to PDF concept subtotals
	DepreciationRate     float64 // share of a durable item's purchase price charged per rental
	LogisticsShare       float64 // factor applied to accumulated shipping/installation sums
	LowMarginPercent     float64 // margins below this raise a low-margin advisory
	CustomPriceTolerance float64 // custom prices closer than this to the computed total are not reported
	BookingShare         float64 // first payment, on booking
	MonthBeforeShare     float64 // second payment, one month before the event
	EventDayShare        float64 // third payment, on the event day
	DepositRate          float64 // security deposit charged on converted orders
}

// DefaultConfig returns the documented defaults: 21% VAT, 5% depreciation,
// shipping and installation halved, 15% margin floor, 25/50/25 payment split.
func DefaultConfig() Config {
	return Config{
		VATRate:              0.21,
		DepreciationRate:     0.05,
		LogisticsShare:       0.5,
		LowMarginPercent:     15,
		CustomPriceTolerance: 0.01,
		BookingShare:         0.25,
		MonthBeforeShare:     0.50,
		EventDayShare:        0.25,
		DepositRate:          0.20,
	}
}

// Validate checks that every rate is within a sensible range.
func (c Config) Validate() error {
	var errs []error
	check := func(name string, v, min, max float64) {
		if v < min || v > max {
			errs = append(errs, fmt.Errorf("%s must be between %v and %v, got %v", name, min, max, v))
		}
	}
	check("vat rate", c.VATRate, 0, 1)
	check("depreciation rate", c.DepreciationRate, 0, 1)
	check("logistics share", c.LogisticsShare, 0, 1)
	check("low margin percent", c.LowMarginPercent, 0, 100)
	check("custom price tolerance", c.CustomPriceTolerance, 0, 1e9)
	check("deposit rate", c.DepositRate, 0, 1)

	split := decimal.NewFromFloat(c.BookingShare).
		Add(decimal.NewFromFloat(c.MonthBeforeShare)).
		Add(decimal.NewFromFloat(c.EventDayShare))
	if !split.Equal(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("payment split must add up to 1, got %s", split.String()))
	}
	return errors.Join(errs...)
}
