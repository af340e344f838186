package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/pkg/enums"
)

// Wine is a producer listing. PriceCents is a derived cache: it is
// recomputed from cost, tax, margin, and VAT on every write and is
// never treated as a source of truth on its own.
type Wine struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProducerID         uuid.UUID        `gorm:"column:producer_id;type:uuid;not null"`
	Name               string           `gorm:"column:name;not null"`
	Vintage            *int             `gorm:"column:vintage"`
	CostAmount         decimal.Decimal  `gorm:"column:cost_amount;type:numeric(12,4);not null"`
	CostCurrency       enums.Currency   `gorm:"column:cost_currency;type:text;not null"`
	ExchangeRate       *decimal.Decimal `gorm:"column:exchange_rate;type:numeric(12,6)"`
	ExchangeRateSource enums.RateSource `gorm:"column:exchange_rate_source;type:rate_source;not null;default:'live'"`
	AlcoholTaxCents    int64            `gorm:"column:alcohol_tax_cents;not null;default:0"`
	PriceIncludesVAT   bool             `gorm:"column:price_includes_vat;not null;default:true"`
	MarginPercent      decimal.Decimal  `gorm:"column:margin_percent;type:numeric(5,2);not null"`
	PriceCents         int64            `gorm:"column:price_cents;not null;default:0"`
	IsActive           bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
