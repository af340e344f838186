package wines

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/internal/fx"
	"github.com/pactwine/pact-backend/internal/pricing"
	"github.com/pactwine/pact-backend/pkg/config"
	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

type wineRepository interface {
	Create(ctx context.Context, wine *models.Wine) error
	Update(ctx context.Context, wine *models.Wine) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wine, error)
	ListByProducer(ctx context.Context, producerID uuid.UUID) ([]models.Wine, error)
}

// Service exposes wine catalog operations. Every write path recomputes
// the derived consumer price so PriceCents never drifts from its inputs.
type Service interface {
	Create(ctx context.Context, input CreateWineInput) (*models.Wine, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateWineInput) (*models.Wine, error)
	Quote(ctx context.Context, id uuid.UUID, memberDiscountPercent decimal.Decimal) (*pricing.Breakdown, error)
	ListByProducer(ctx context.Context, producerID uuid.UUID) ([]models.Wine, error)
}

type service struct {
	repo  wineRepository
	rates fx.Provider
	local enums.Currency
	logg  *logger.Logger
}

// NewService builds a wine service with the provided dependencies.
func NewService(repo wineRepository, rates fx.Provider, cfg config.FulfillmentConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wine repository required")
	}
	if rates == nil {
		return nil, fmt.Errorf("fx provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	local, err := config.SettlementCurrency(cfg)
	if err != nil {
		return nil, err
	}
	return &service{repo: repo, rates: rates, local: local, logg: logg}, nil
}

// CreateWineInput captures the fields needed to list a wine.
type CreateWineInput struct {
	ProducerID         uuid.UUID
	Name               string
	Vintage            *int
	CostAmount         decimal.Decimal
	CostCurrency       enums.Currency
	ExchangeRate       *decimal.Decimal
	ExchangeRateSource enums.RateSource
	AlcoholTaxCents    int64
	PriceIncludesVAT   bool
	MarginPercent      decimal.Decimal
}

// UpdateWineInput captures the mutable wine fields. Nil means unchanged.
type UpdateWineInput struct {
	Name             *string
	Vintage          *int
	CostAmount       *decimal.Decimal
	CostCurrency     *enums.Currency
	ExchangeRate     *decimal.Decimal
	AlcoholTaxCents  *int64
	PriceIncludesVAT *bool
	MarginPercent    *decimal.Decimal
	IsActive         *bool
}

func (s *service) Create(ctx context.Context, input CreateWineInput) (*models.Wine, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wine name is required")
	}
	if !input.CostCurrency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown cost currency")
	}
	if input.ExchangeRateSource == "" {
		input.ExchangeRateSource = enums.RateSourceLive
	}
	if input.ExchangeRateSource != enums.RateSourceLive && input.ExchangeRate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "non-live rate sources require a stored exchange rate")
	}

	wine := &models.Wine{
		ProducerID:         input.ProducerID,
		Name:               input.Name,
		Vintage:            input.Vintage,
		CostAmount:         input.CostAmount,
		CostCurrency:       input.CostCurrency,
		ExchangeRate:       input.ExchangeRate,
		ExchangeRateSource: input.ExchangeRateSource,
		AlcoholTaxCents:    input.AlcoholTaxCents,
		PriceIncludesVAT:   input.PriceIncludesVAT,
		MarginPercent:      input.MarginPercent,
		IsActive:           true,
	}
	if err := s.recomputePrice(ctx, wine); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, wine); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create wine")
	}
	return wine, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateWineInput) (*models.Wine, error) {
	wine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wine not found")
	}

	if input.Name != nil {
		wine.Name = *input.Name
	}
	if input.Vintage != nil {
		wine.Vintage = input.Vintage
	}
	if input.CostAmount != nil {
		wine.CostAmount = *input.CostAmount
	}
	if input.CostCurrency != nil {
		if !input.CostCurrency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown cost currency")
		}
		wine.CostCurrency = *input.CostCurrency
	}
	if input.ExchangeRate != nil {
		wine.ExchangeRate = input.ExchangeRate
	}
	if input.AlcoholTaxCents != nil {
		wine.AlcoholTaxCents = *input.AlcoholTaxCents
	}
	if input.PriceIncludesVAT != nil {
		wine.PriceIncludesVAT = *input.PriceIncludesVAT
	}
	if input.MarginPercent != nil {
		wine.MarginPercent = *input.MarginPercent
	}
	if input.IsActive != nil {
		wine.IsActive = *input.IsActive
	}

	if err := s.recomputePrice(ctx, wine); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, wine); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update wine")
	}
	return wine, nil
}

// ListByProducer returns the producer's catalog, active wines first.
func (s *service) ListByProducer(ctx context.Context, producerID uuid.UUID) ([]models.Wine, error) {
	rows, err := s.repo.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wines")
	}
	return rows, nil
}

// Quote prices the wine for a single bottle without persisting anything.
func (s *service) Quote(ctx context.Context, id uuid.UUID, memberDiscountPercent decimal.Decimal) (*pricing.Breakdown, error) {
	wine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wine not found")
	}
	breakdown, err := s.breakdownFor(ctx, wine, memberDiscountPercent)
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}

func (s *service) recomputePrice(ctx context.Context, wine *models.Wine) error {
	breakdown, err := s.breakdownFor(ctx, wine, decimal.Decimal{})
	if err != nil {
		return err
	}
	wine.PriceCents = breakdown.FinalPriceCents
	return nil
}

func (s *service) breakdownFor(ctx context.Context, wine *models.Wine, memberDiscountPercent decimal.Decimal) (pricing.Breakdown, error) {
	rate := s.resolveRate(ctx, wine)
	return pricing.Compute(pricing.Input{
		CostAmount:            wine.CostAmount,
		ExchangeRate:          rate,
		AlcoholTax:            decimal.NewFromInt(wine.AlcoholTaxCents).Div(decimal.NewFromInt(100)),
		MarginPercent:         wine.MarginPercent,
		PriceIncludesVAT:      wine.PriceIncludesVAT,
		MemberDiscountPercent: memberDiscountPercent,
	})
}

// resolveRate prefers a stored rate (fixed-date and period-average
// sources always carry one) and otherwise asks the FX provider. A feed
// failure degrades to 1 so a catalog write never blocks on FX.
func (s *service) resolveRate(ctx context.Context, wine *models.Wine) decimal.Decimal {
	if wine.ExchangeRate != nil {
		return *wine.ExchangeRate
	}
	rate, err := fx.RateOrFallback(ctx, s.rates, wine.CostCurrency, s.local)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"wine_id":  wine.ID,
			"currency": wine.CostCurrency,
		}), "fx lookup failed, pricing with rate 1")
	}
	return rate
}
