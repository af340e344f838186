package zones

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
)

type stubZoneRepo struct {
	zones map[uuid.UUID]*models.Zone
	list  []models.Zone
}

func (s *stubZoneRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Zone, error) {
	zone, ok := s.zones[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "zone not found")
	}
	return zone, nil
}

func (s *stubZoneRepo) ListByKind(_ context.Context, kind enums.ZoneKind, country string) ([]models.Zone, error) {
	var out []models.Zone
	for _, zone := range s.list {
		if zone.Kind != kind {
			continue
		}
		if country != "" && zone.Country != country {
			continue
		}
		out = append(out, zone)
	}
	return out, nil
}

type stubProducerRepo struct {
	producers []models.Producer
}

func (s *stubProducerRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Producer, error) {
	var out []models.Producer
	for _, producer := range s.producers {
		for _, id := range ids {
			if producer.ID == id {
				out = append(out, producer)
			}
		}
	}
	return out, nil
}

func TestResolvePickupZoneSingleZone(t *testing.T) {
	t.Parallel()

	zone := &models.Zone{ID: uuid.New(), Name: "Burgundy", Kind: enums.ZoneKindPickup, Country: "FR"}
	producerA := models.Producer{ID: uuid.New(), PickupZoneID: zone.ID}
	producerB := models.Producer{ID: uuid.New(), PickupZoneID: zone.ID}

	svc, err := NewService(
		&stubZoneRepo{zones: map[uuid.UUID]*models.Zone{zone.ID: zone}},
		&stubProducerRepo{producers: []models.Producer{producerA, producerB}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, err := svc.ResolvePickupZone(context.Background(), []uuid.UUID{producerA.ID, producerB.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ID != zone.ID {
		t.Fatalf("expected zone %s, got %s", zone.ID, resolved.ID)
	}
}

func TestResolvePickupZoneMixedZonesRejected(t *testing.T) {
	t.Parallel()

	zoneA := &models.Zone{ID: uuid.New(), Kind: enums.ZoneKindPickup}
	zoneB := &models.Zone{ID: uuid.New(), Kind: enums.ZoneKindPickup}
	producerA := models.Producer{ID: uuid.New(), PickupZoneID: zoneA.ID}
	producerB := models.Producer{ID: uuid.New(), PickupZoneID: zoneB.ID}

	svc, err := NewService(
		&stubZoneRepo{zones: map[uuid.UUID]*models.Zone{zoneA.ID: zoneA, zoneB.ID: zoneB}},
		&stubProducerRepo{producers: []models.Producer{producerA, producerB}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.ResolvePickupZone(context.Background(), []uuid.UUID{producerA.ID, producerB.ID})
	if err == nil {
		t.Fatal("expected error for mixed pickup zones")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if _, ok := details["producer_zones"]; !ok {
		t.Fatal("expected per-producer zone breakdown in details")
	}
}

func TestResolvePickupZoneMissingProducer(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubZoneRepo{}, &stubProducerRepo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.ResolvePickupZone(context.Background(), []uuid.UUID{uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestMatchDeliveryZoneLongestPrefixWins(t *testing.T) {
	t.Parallel()

	broad := models.Zone{ID: uuid.New(), Name: "Stockholm County", Kind: enums.ZoneKindDelivery, Country: "SE", PostcodePrefixes: pq.StringArray{"1"}}
	narrow := models.Zone{ID: uuid.New(), Name: "Stockholm Inner", Kind: enums.ZoneKindDelivery, Country: "SE", PostcodePrefixes: pq.StringArray{"114"}}

	svc, err := NewService(&stubZoneRepo{list: []models.Zone{broad, narrow}}, &stubProducerRepo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zone, err := svc.MatchDeliveryZone(context.Background(), "SE", "114 28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zone == nil || zone.ID != narrow.ID {
		t.Fatalf("expected longest-prefix zone, got %+v", zone)
	}
}

func TestMatchDeliveryZoneMissIsNotError(t *testing.T) {
	t.Parallel()

	zone := models.Zone{ID: uuid.New(), Kind: enums.ZoneKindDelivery, Country: "SE", PostcodePrefixes: pq.StringArray{"114"}}
	svc, err := NewService(&stubZoneRepo{list: []models.Zone{zone}}, &stubProducerRepo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matched, err := svc.MatchDeliveryZone(context.Background(), "SE", "98765")
	if err != nil {
		t.Fatalf("miss must not be an error, got %v", err)
	}
	if matched != nil {
		t.Fatalf("expected nil zone, got %+v", matched)
	}
}

func TestMatchDeliveryZoneRequiresPostcode(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubZoneRepo{}, &stubProducerRepo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.MatchDeliveryZone(context.Background(), "SE", "   ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
