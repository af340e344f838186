package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/api/responses"
	"github.com/pactwine/pact-backend/api/validators"
	"github.com/pactwine/pact-backend/internal/wines"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

type createWineRequest struct {
	ProducerID         uuid.UUID        `json:"producer_id" validate:"required"`
	Name               string           `json:"name" validate:"required"`
	Vintage            *int             `json:"vintage,omitempty"`
	CostAmount         decimal.Decimal  `json:"cost_amount" validate:"required"`
	CostCurrency       string           `json:"cost_currency" validate:"required"`
	ExchangeRate       *decimal.Decimal `json:"exchange_rate,omitempty"`
	ExchangeRateSource string           `json:"exchange_rate_source,omitempty"`
	AlcoholTaxCents    int64            `json:"alcohol_tax_cents" validate:"gte=0"`
	PriceIncludesVAT   bool             `json:"price_includes_vat"`
	MarginPercent      decimal.Decimal  `json:"margin_percent"`
}

// WineCreate lists a wine; the consumer price is derived server-side.
func WineCreate(svc wines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createWineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency, err := enums.ParseCurrency(req.CostCurrency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown cost currency"))
			return
		}
		source := enums.RateSourceLive
		if req.ExchangeRateSource != "" {
			source, err = enums.ParseRateSource(req.ExchangeRateSource)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown exchange rate source"))
				return
			}
		}

		wine, err := svc.Create(r.Context(), wines.CreateWineInput{
			ProducerID:         req.ProducerID,
			Name:               validators.SanitizeString(req.Name, 255),
			Vintage:            req.Vintage,
			CostAmount:         req.CostAmount,
			CostCurrency:       currency,
			ExchangeRate:       req.ExchangeRate,
			ExchangeRateSource: source,
			AlcoholTaxCents:    req.AlcoholTaxCents,
			PriceIncludesVAT:   req.PriceIncludesVAT,
			MarginPercent:      req.MarginPercent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, wine)
	}
}

type updateWineRequest struct {
	Name             *string          `json:"name,omitempty"`
	Vintage          *int             `json:"vintage,omitempty"`
	CostAmount       *decimal.Decimal `json:"cost_amount,omitempty"`
	CostCurrency     *string          `json:"cost_currency,omitempty"`
	ExchangeRate     *decimal.Decimal `json:"exchange_rate,omitempty"`
	AlcoholTaxCents  *int64           `json:"alcohol_tax_cents,omitempty"`
	PriceIncludesVAT *bool            `json:"price_includes_vat,omitempty"`
	MarginPercent    *decimal.Decimal `json:"margin_percent,omitempty"`
	IsActive         *bool            `json:"is_active,omitempty"`
}

// WineUpdate patches mutable wine fields and recomputes the price.
func WineUpdate(svc wines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "wineId")
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid wine id").WithDetails(map[string]any{"wine_id": raw}))
			return
		}

		var req updateWineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := wines.UpdateWineInput{
			Vintage:          req.Vintage,
			CostAmount:       req.CostAmount,
			ExchangeRate:     req.ExchangeRate,
			AlcoholTaxCents:  req.AlcoholTaxCents,
			PriceIncludesVAT: req.PriceIncludesVAT,
			MarginPercent:    req.MarginPercent,
			IsActive:         req.IsActive,
		}
		if req.Name != nil {
			name := validators.SanitizeString(*req.Name, 255)
			input.Name = &name
		}
		if req.CostCurrency != nil {
			currency, err := enums.ParseCurrency(*req.CostCurrency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown cost currency"))
				return
			}
			input.CostCurrency = &currency
		}

		wine, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, wine)
	}
}

// WineListByProducer returns a producer's catalog.
func WineListByProducer(svc wines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "producerId")
		producerID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid producer id").WithDetails(map[string]any{"producer_id": raw}))
			return
		}

		rows, err := svc.ListByProducer(r.Context(), producerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"wines": rows})
	}
}
