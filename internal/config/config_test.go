package config

import (
	"testing"

	"github.com/resona/rental-api/internal/domain/pricing"
)

func TestLoadPricingDefaults(t *testing.T) {
	got := LoadPricing()
	if got != pricing.DefaultConfig() {
		t.Errorf("LoadPricing() = %+v, want defaults", got)
	}
}

func TestLoadPricingFromEnv(t *testing.T) {
	t.Setenv("PRICING_VAT_RATE", "0.10")
	t.Setenv("PRICING_DEPRECIATION_RATE", "0.08")

	got := LoadPricing()
	if got.VATRate != 0.10 || got.DepreciationRate != 0.08 {
		t.Errorf("LoadPricing() = %+v", got)
	}
}

func TestLoadPricingInvalidFallsBack(t *testing.T) {
	t.Setenv("PRICING_VAT_RATE", "0.10")
	t.Setenv("PRICING_BOOKING_SHARE", "0.9")

	got := LoadPricing()
	if got != pricing.DefaultConfig() {
		t.Errorf("LoadPricing() = %+v, want defaults", got)
	}
}

func TestLoadPricingPaymentSplit(t *testing.T) {
	t.Setenv("PRICING_BOOKING_SHARE", "0.30")
	t.Setenv("PRICING_MONTH_BEFORE_SHARE", "0.40")
	t.Setenv("PRICING_EVENT_DAY_SHARE", "0.30")

	got := LoadPricing()
	if got.BookingShare != 0.30 || got.MonthBeforeShare != 0.40 || got.EventDayShare != 0.30 {
		t.Errorf("LoadPricing() = %+v, want 30/40/30 split", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test, ,http://b.test ")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("splitList = %v", got)
	}
	if splitList("") != nil {
		t.Errorf("splitList(\"\") should be nil")
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://resona.test")

	cfg := Load()
	if cfg.App.Port != "9090" {
		t.Errorf("App.Port = %q", cfg.App.Port)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://resona.test" {
		t.Errorf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Pricing != pricing.DefaultConfig() {
		t.Errorf("Pricing = %+v", cfg.Pricing)
	}

	t.Setenv("PRICING_DEPOSIT_RATE", "0.30")
	if got := Load().Pricing.DepositRate; got != 0.30 {
		t.Errorf("Pricing.DepositRate = %v, want 0.30", got)
	}
}
