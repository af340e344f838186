package controllers

import (
	"net/http"

	"github.com/pactwine/pact-backend/api/responses"
	"github.com/pactwine/pact-backend/api/validators"
	"github.com/pactwine/pact-backend/internal/zones"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

// ZoneMatch resolves a postcode to its delivery zone. An uncovered
// postcode is a null answer, not an error: storefronts probe coverage
// with this endpoint before the buyer commits.
func ZoneMatch(svc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		country := validators.SanitizeString(r.URL.Query().Get("country"), 2)
		postcode := validators.SanitizeString(r.URL.Query().Get("postcode"), 16)
		if country == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "country is required"))
			return
		}

		zone, err := svc.MatchDeliveryZone(r.Context(), country, postcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if zone == nil {
			responses.WriteSuccess(w, nil)
			return
		}

		responses.WriteSuccess(w, zone)
	}
}
