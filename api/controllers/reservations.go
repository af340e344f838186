package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pactwine/pact-backend/api/responses"
	"github.com/pactwine/pact-backend/api/validators"
	"github.com/pactwine/pact-backend/internal/reservations"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

type approveReservationItem struct {
	ItemID      uuid.UUID `json:"item_id" validate:"required"`
	ApprovedQty int       `json:"approved_qty" validate:"gte=0"`
}

type approveReservationRequest struct {
	Items []approveReservationItem `json:"items" validate:"required,min=1,dive"`
}

// ReservationApprove records a producer's per-line decisions on a
// reservation and returns it with the derived status.
func ReservationApprove(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "reservationId")
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid reservation id").WithDetails(map[string]any{"reservation_id": raw}))
			return
		}

		var req approveReservationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		approvals := make([]reservations.ItemApproval, 0, len(req.Items))
		for _, item := range req.Items {
			approvals = append(approvals, reservations.ItemApproval{
				ItemID:      item.ItemID,
				ApprovedQty: item.ApprovedQty,
			})
		}

		reservation, err := svc.Approve(r.Context(), id, approvals)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reservation)
	}
}
