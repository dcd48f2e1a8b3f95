package pricing

import "fmt"

// AdvisoryKind identifies an advisory. Advisories never block saving a quote.
type AdvisoryKind string

const (
	AdvisoryNegativeProfit AdvisoryKind = "negative_profit"
	AdvisoryLowMargin      AdvisoryKind = "low_margin"
	AdvisoryCustomPrice    AdvisoryKind = "custom_price"
)

type AdvisoryLevel string

const (
	LevelError   AdvisoryLevel = "error"
	LevelWarning AdvisoryLevel = "warning"
	LevelInfo    AdvisoryLevel = "info"
)

type Advisory struct {
	Kind    AdvisoryKind  `json:"kind"`
	Level   AdvisoryLevel `json:"level"`
	Message string        `json:"message"`
}

func (e *Engine) advise(b CostBreakdown, o Overrides) []Advisory {
	advisories := []Advisory{}

	switch {
	case b.Profit.IsNegative():
		advisories = append(advisories, Advisory{
			Kind:  AdvisoryNegativeProfit,
			Level: LevelError,
			Message: fmt.Sprintf("sale price %s is below total cost %s",
				Round2(b.SalePrice).StringFixed(2), Round2(b.TotalCost).StringFixed(2)),
		})
	case b.MarginPercent.LessThan(e.lowMargin) && b.TotalCost.IsPositive():
		advisories = append(advisories, Advisory{
			Kind:  AdvisoryLowMargin,
			Level: LevelWarning,
			Message: fmt.Sprintf("margin %s%% is below the recommended %s%%",
				Round2(b.MarginPercent).StringFixed(2), e.lowMargin.String()),
		})
	}

	if o.HasCustomPrice() && o.CustomFinalPrice.Sub(b.CalculatedTotal).Abs().GreaterThan(e.tolerance) {
		advisories = append(advisories, Advisory{
			Kind:  AdvisoryCustomPrice,
			Level: LevelInfo,
			Message: fmt.Sprintf("custom price %s replaces the calculated total %s",
				Round2(*o.CustomFinalPrice).StringFixed(2), Round2(b.CalculatedTotal).StringFixed(2)),
		})
	}
	return advisories
}

// HasAdvisory reports whether the breakdown carries an advisory of the given kind.
func (b CostBreakdown) HasAdvisory(kind AdvisoryKind) bool {
	for _, a := range b.Advisories {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
