package zones

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
)

type zoneRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Zone, error)
	ListByKind(ctx context.Context, kind enums.ZoneKind, country string) ([]models.Zone, error)
}

type producerRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Producer, error)
}

// Service resolves the two ends of a pallet lane: the pickup zone shared
// by a cart's producers and the delivery zone covering the customer's
// postcode.
type Service interface {
	ResolvePickupZone(ctx context.Context, producerIDs []uuid.UUID) (*models.Zone, error)
	MatchDeliveryZone(ctx context.Context, country, postcode string) (*models.Zone, error)
}

type service struct {
	zones     zoneRepository
	producers producerRepository
}

// NewService builds a zone service with the provided repositories.
func NewService(zones zoneRepository, producers producerRepository) (Service, error) {
	if zones == nil {
		return nil, fmt.Errorf("zone repository required")
	}
	if producers == nil {
		return nil, fmt.Errorf("producer repository required")
	}
	return &service{zones: zones, producers: producers}, nil
}

// ResolvePickupZone returns the single pickup zone all given producers
// ship from. A cart spanning more than one pickup zone cannot ride one
// pallet and is rejected with a per-producer breakdown.
func (s *service) ResolvePickupZone(ctx context.Context, producerIDs []uuid.UUID) (*models.Zone, error) {
	if len(producerIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one producer is required")
	}

	producers, err := s.producers.FindByIDs(ctx, producerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load producers")
	}

	found := make(map[uuid.UUID]models.Producer, len(producers))
	for _, producer := range producers {
		found[producer.ID] = producer
	}
	var missing []uuid.UUID
	for _, id := range producerIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producer not found").WithDetails(map[string]any{
			"producer_ids": missing,
		})
	}

	zoneID := producers[0].PickupZoneID
	mixed := false
	assignments := make([]map[string]any, 0, len(producers))
	for _, producer := range producers {
		if producer.PickupZoneID != zoneID {
			mixed = true
		}
		assignments = append(assignments, map[string]any{
			"producer_id":    producer.ID,
			"pickup_zone_id": producer.PickupZoneID,
		})
	}
	if mixed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart spans multiple pickup zones").WithDetails(map[string]any{
			"producer_zones": assignments,
		})
	}

	zone, err := s.zones.FindByID(ctx, zoneID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pickup zone")
	}
	if zone.Kind != enums.ZoneKindPickup {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "producer zone is not a pickup zone").WithDetails(map[string]any{
			"zone_id": zone.ID,
		})
	}
	return zone, nil
}

// MatchDeliveryZone finds the delivery zone whose postcode prefix covers
// the given postcode, preferring the longest matching prefix. A postcode
// outside every zone is not an error; the caller gets nil and decides
// how to degrade.
func (s *service) MatchDeliveryZone(ctx context.Context, country, postcode string) (*models.Zone, error) {
	normalized := normalizePostcode(postcode)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postcode is required")
	}

	candidates, err := s.zones.ListByKind(ctx, enums.ZoneKindDelivery, strings.ToUpper(strings.TrimSpace(country)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list delivery zones")
	}

	var best *models.Zone
	bestLen := 0
	for i := range candidates {
		for _, prefix := range candidates[i].PostcodePrefixes {
			p := normalizePostcode(prefix)
			if p == "" || !strings.HasPrefix(normalized, p) {
				continue
			}
			if len(p) > bestLen {
				best = &candidates[i]
				bestLen = len(p)
			}
		}
	}
	return best, nil
}

// normalizePostcode strips whitespace and uppercases so prefix matching
// is insensitive to formatting ("114 28" and "11428" are the same code).
func normalizePostcode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r == ' ' || r == '\t' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
