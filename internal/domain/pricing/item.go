package pricing

import (
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

var (
	halfHour = decimal.NewFromFloat(0.5)
	one      = decimal.NewFromInt(1)
	hundred  = decimal.NewFromInt(100)
)

// LineItem is one selected product, personnel booking or consumable in a quote.
// Kind decides which of Quantity or PeopleCount/HoursPerPerson is meaningful.
type LineItem struct {
	ProductID            string          `json:"product_id"`
	Name                 string          `json:"name"`
	Kind                 enum.ItemKind   `json:"kind"`
	UnitSalePrice        decimal.Decimal `json:"unit_sale_price"`
	UnitPurchasePrice    decimal.Decimal `json:"unit_purchase_price"`
	Quantity             int             `json:"quantity,omitempty"`
	PeopleCount          int             `json:"people_count,omitempty"`
	HoursPerPerson       decimal.Decimal `json:"hours_per_person,omitempty"`
	ShippingUnitCost     decimal.Decimal `json:"shipping_unit_cost"`
	InstallationUnitCost decimal.Decimal `json:"installation_unit_cost"`
}

// EffectiveQuantity is the multiplier applied to every per-unit amount of the item.
//
// Personnel items book PeopleCount × HoursPerPerson hours. At least one person is
// booked, a missing hour count means one hour, and hours snap to half-hour steps
// with a 0.5 minimum. Other items, unknown kinds included, use Quantity; a
// quantity of exactly 0 marks the item for deletion and yields 0, negative
// quantities count as 1.
func EffectiveQuantity(item LineItem) decimal.Decimal {
	switch item.Kind {
	case enum.ItemKindPersonnel:
		people := item.PeopleCount
		if people < 1 {
			people = 1
		}
		return decimal.NewFromInt(int64(people)).Mul(normalizeHours(item.HoursPerPerson))
	default:
		switch {
		case item.Quantity == 0:
			return decimal.Zero
		case item.Quantity < 0:
			return one
		}
		return decimal.NewFromInt(int64(item.Quantity))
	}
}

func normalizeHours(h decimal.Decimal) decimal.Decimal {
	if !h.IsPositive() {
		return one
	}
	steps := h.Div(halfHour).Round(0)
	snapped := steps.Mul(halfHour)
	if snapped.LessThan(halfHour) {
		return halfHour
	}
	return snapped
}

// PriceItem returns UnitSalePrice × EffectiveQuantity, unrounded.
func PriceItem(item LineItem) decimal.Decimal {
	return item.UnitSalePrice.Mul(EffectiveQuantity(item))
}

// NormalizeItems drops product and consumable items whose quantity is exactly
// zero, which is how a working quote signals that an item was removed.
func NormalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.Kind != enum.ItemKindPersonnel && item.Quantity == 0 {
			continue
		}
		out = append(out, item)
	}
	return out
}
