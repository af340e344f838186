package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pactwine/pact-backend/api/responses"
	"github.com/pactwine/pact-backend/api/validators"
	"github.com/pactwine/pact-backend/internal/pallets"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

const (
	defaultPalletPageSize = 50
	maxPalletPageSize     = 200
)

// PalletList returns pallets with their fill recomputed on read.
func PalletList(svc pallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultPalletPageSize, 1, maxPalletPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"pallets": dtos})
	}
}

func PalletDetail(svc pallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := palletIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

type palletTransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// PalletTransition moves a pallet along its lifecycle. Backwards moves
// are rejected by the service.
func PalletTransition(svc pallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := palletIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req palletTransitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParsePalletStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown pallet status"))
			return
		}

		if err := svc.TransitionStatus(r.Context(), id, next); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"id": id, "status": next})
	}
}

type palletRuleRequest struct {
	CompletionRule json.RawMessage `json:"completion_rule"`
}

// PalletSetRule replaces the pallet's completion rule; a null payload
// clears it back to the capacity default.
func PalletSetRule(svc pallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := palletIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req palletRuleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.SetCompletionRule(r.Context(), id, req.CompletionRule)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func palletIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "palletId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid pallet id").WithDetails(map[string]any{"pallet_id": raw})
	}
	return id, nil
}
