package pricing

import (
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Overrides are the manual adjustments an operator applies on top of the line items.
type Overrides struct {
	TransportCost       decimal.Decimal  `json:"transport_cost"`
	ExternalRentalCost  decimal.Decimal  `json:"external_rental_cost"`
	IncludeShipping     bool             `json:"include_shipping"`
	IncludeInstallation bool             `json:"include_installation"`
	CustomFinalPrice    *decimal.Decimal `json:"custom_final_price,omitempty"`
}

// HasCustomPrice reports whether a non-zero custom final price was set.
func (o Overrides) HasCustomPrice() bool {
	return o.CustomFinalPrice != nil && !o.CustomFinalPrice.IsZero()
}

// PricedItem is a line item together with the amounts the engine derived for it.
// Shipping and Installation are the item's contribution before the logistics share.
type PricedItem struct {
	LineItem
	EffectiveQuantity decimal.Decimal `json:"effective_quantity"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Cost              decimal.Decimal `json:"cost"`
	Shipping          decimal.Decimal `json:"shipping"`
	Installation      decimal.Decimal `json:"installation"`
}

// CostBreakdown is the internal view of a quote: what it sells for, what it
// costs the company and the resulting margin.
type CostBreakdown struct {
	Items []PricedItem `json:"items"`

	Subtotal          decimal.Decimal `json:"subtotal"`
	ShippingTotal     decimal.Decimal `json:"shipping_total"`
	InstallationTotal decimal.Decimal `json:"installation_total"`
	SalePriceBase     decimal.Decimal `json:"sale_price_base"`
	CalculatedTotal   decimal.Decimal `json:"calculated_total"`

	CostMaterial             decimal.Decimal `json:"cost_material"`
	CostPersonnel            decimal.Decimal `json:"cost_personnel"`
	CostShippingInstallation decimal.Decimal `json:"cost_shipping_installation"`
	CostDepreciation         decimal.Decimal `json:"cost_depreciation"`
	TransportCost            decimal.Decimal `json:"transport_cost"`
	ExternalRentalCost       decimal.Decimal `json:"external_rental_cost"`
	TotalCost                decimal.Decimal `json:"total_cost"`

	SalePrice     decimal.Decimal `json:"sale_price"`
	Profit        decimal.Decimal `json:"profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`

	Advisories []Advisory `json:"advisories"`
}

// Engine evaluates quotes with a fixed Config.
type Engine struct {
	cfg Config

	vat          decimal.Decimal
	depreciation decimal.Decimal
	logistics    decimal.Decimal
	lowMargin    decimal.Decimal
	tolerance    decimal.Decimal
}

// NewEngine creates an engine. The config is not validated here; callers
// loading it from the environment should call Config.Validate first.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:          cfg,
		vat:          decimal.NewFromFloat(cfg.VATRate),
		depreciation: decimal.NewFromFloat(cfg.DepreciationRate),
		logistics:    decimal.NewFromFloat(cfg.LogisticsShare),
		lowMargin:    decimal.NewFromFloat(cfg.LowMarginPercent),
		tolerance:    decimal.NewFromFloat(cfg.CustomPriceTolerance),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ComputeCostBreakdown prices the items and computes cost, profit and margin.
// Items with a zero quantity are ignored.
func (e *Engine) ComputeCostBreakdown(items []LineItem, o Overrides) CostBreakdown {
	items = NormalizeItems(items)

	b := CostBreakdown{
		Items:              make([]PricedItem, 0, len(items)),
		TransportCost:      o.TransportCost,
		ExternalRentalCost: o.ExternalRentalCost,
	}

	var shippingCost, installationCost decimal.Decimal
	for _, item := range items {
		q := EffectiveQuantity(item)
		p := PricedItem{
			LineItem:          item,
			EffectiveQuantity: q,
			TotalPrice:        item.UnitSalePrice.Mul(q),
		}

		switch item.Kind {
		case enum.ItemKindPersonnel:
			p.Cost = item.UnitPurchasePrice.Mul(q)
			b.CostPersonnel = b.CostPersonnel.Add(p.Cost)
		case enum.ItemKindConsumable:
			p.Cost = item.UnitPurchasePrice.Mul(q)
			b.CostDepreciation = b.CostDepreciation.Add(p.Cost)
		default:
			p.Cost = item.UnitPurchasePrice.Mul(q).Mul(e.depreciation)
			b.CostDepreciation = b.CostDepreciation.Add(p.Cost)
		}

		if o.IncludeShipping {
			p.Shipping = item.ShippingUnitCost.Mul(q)
			shippingCost = shippingCost.Add(p.Shipping)
		}
		if o.IncludeInstallation {
			p.Installation = item.InstallationUnitCost.Mul(q)
			installationCost = installationCost.Add(p.Installation)
		}

		b.Subtotal = b.Subtotal.Add(p.TotalPrice)
		b.Items = append(b.Items, p)
	}

	// Only a share of logistics is charged to the customer and booked as cost.
	b.ShippingTotal = shippingCost.Mul(e.logistics)
	b.InstallationTotal = installationCost.Mul(e.logistics)
	b.CostShippingInstallation = shippingCost.Add(installationCost).Mul(e.logistics)

	b.SalePriceBase = b.Subtotal.Add(b.ShippingTotal).Add(b.InstallationTotal)
	b.CalculatedTotal = b.SalePriceBase.Add(o.TransportCost).Add(o.ExternalRentalCost)

	b.SalePrice = b.CalculatedTotal
	if o.HasCustomPrice() {
		b.SalePrice = *o.CustomFinalPrice
	}

	b.TotalCost = b.CostMaterial.
		Add(b.CostPersonnel).
		Add(b.CostShippingInstallation).
		Add(b.CostDepreciation).
		Add(b.TransportCost).
		Add(b.ExternalRentalCost)
	b.Profit = b.SalePrice.Sub(b.TotalCost)
	if b.SalePrice.IsPositive() {
		b.MarginPercent = b.Profit.Div(b.SalePrice).Mul(hundred)
	}

	b.Advisories = e.advise(b, o)
	return b
}
