package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/api/responses"
	"github.com/pactwine/pact-backend/api/validators"
	"github.com/pactwine/pact-backend/internal/wines"
	"github.com/pactwine/pact-backend/pkg/logger"
)

type priceQuoteRequest struct {
	WineID                uuid.UUID       `json:"wine_id" validate:"required"`
	MemberDiscountPercent decimal.Decimal `json:"member_discount_percent"`
}

// PriceQuote returns the full price breakdown for a wine, optionally
// with a member discount applied to the margin share.
func PriceQuote(svc wines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req priceQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown, err := svc.Quote(r.Context(), req.WineID, req.MemberDiscountPercent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, breakdown)
	}
}
