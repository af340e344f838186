package pallets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pactwine/pact-backend/internal/fx"
	"github.com/pactwine/pact-backend/internal/notify"
	"github.com/pactwine/pact-backend/pkg/config"
	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

type palletRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pallet, error)
	List(ctx context.Context, limit int) ([]models.Pallet, error)
	FindOrCreateLane(ctx context.Context, pickupZoneID, deliveryZoneID uuid.UUID, capacity int, rule json.RawMessage) (*models.Pallet, error)
	FindActiveReservations(ctx context.Context, palletID uuid.UUID) ([]models.Reservation, error)
	Update(ctx context.Context, pallet *models.Pallet) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PalletStatus) error
	MarkCompleteNotified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type wineFinder interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Wine, error)
}

type producerFinder interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Producer, error)
}

// PalletDTO is the read model for a pallet, fill included.
type PalletDTO struct {
	ID                 uuid.UUID          `json:"id"`
	PickupZoneID       uuid.UUID          `json:"pickup_zone_id"`
	DeliveryZoneID     uuid.UUID          `json:"delivery_zone_id"`
	BottleCapacity     int                `json:"bottle_capacity"`
	Status             enums.PalletStatus `json:"status"`
	Fill               Fill               `json:"fill"`
	Complete           bool               `json:"complete"`
	CompleteNotifiedAt *time.Time         `json:"complete_notified_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// CompletionResult pairs a pallet's fill with its rule verdict.
type CompletionResult struct {
	Complete bool
	Fill     Fill
}

// Service exposes pallet lane and fill operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*PalletDTO, error)
	List(ctx context.Context, limit int) ([]PalletDTO, error)
	EnsureLane(ctx context.Context, pickupZoneID, deliveryZoneID uuid.UUID) (*models.Pallet, error)
	EvaluateCompletion(ctx context.Context, pallet *models.Pallet) (CompletionResult, error)
	SettleCompletion(ctx context.Context, pallet *models.Pallet) (CompletionResult, bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, next enums.PalletStatus) error
	SetCompletionRule(ctx context.Context, id uuid.UUID, rule json.RawMessage) (*PalletDTO, error)
}

type service struct {
	repo      palletRepository
	wines     wineFinder
	producers producerFinder
	rates     fx.Provider
	notifier  notify.CompletionNotifier
	cfg       config.FulfillmentConfig
	local     enums.Currency
	logg      *logger.Logger
}

// NewService builds a pallet service with the provided dependencies.
func NewService(repo palletRepository, wines wineFinder, producers producerFinder, rates fx.Provider, notifier notify.CompletionNotifier, cfg config.FulfillmentConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pallet repository required")
	}
	if wines == nil {
		return nil, fmt.Errorf("wine finder required")
	}
	if producers == nil {
		return nil, fmt.Errorf("producer finder required")
	}
	if rates == nil {
		return nil, fmt.Errorf("fx provider required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("completion notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	local, err := config.SettlementCurrency(cfg)
	if err != nil {
		return nil, err
	}
	return &service{repo: repo, wines: wines, producers: producers, rates: rates, notifier: notifier, cfg: cfg, local: local, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PalletDTO, error) {
	pallet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pallet")
	}
	dto, err := s.toDTO(ctx, pallet)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) List(ctx context.Context, limit int) ([]PalletDTO, error) {
	pallets, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pallets")
	}
	dtos := make([]PalletDTO, 0, len(pallets))
	for i := range pallets {
		dto, err := s.toDTO(ctx, &pallets[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	return dtos, nil
}

// EnsureLane returns the pallet for the zone pair, creating it with the
// configured capacity and default completion rule on first use.
func (s *service) EnsureLane(ctx context.Context, pickupZoneID, deliveryZoneID uuid.UUID) (*models.Pallet, error) {
	if pickupZoneID == uuid.Nil || deliveryZoneID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "both lane zones are required")
	}
	rule, err := json.Marshal(DefaultRule(s.cfg.DefaultBottleCapacity))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode default completion rule")
	}
	pallet, err := s.repo.FindOrCreateLane(ctx, pickupZoneID, deliveryZoneID, s.cfg.DefaultBottleCapacity, rule)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensure pallet lane")
	}
	return pallet, nil
}

// EvaluateCompletion computes the pallet's fill and applies its
// completion rule. Evaluation is pure, so calling it twice on an
// unchanged pallet gives the same verdict.
func (s *service) EvaluateCompletion(ctx context.Context, pallet *models.Pallet) (CompletionResult, error) {
	if pallet == nil {
		return CompletionResult{}, pkgerrors.New(pkgerrors.CodeInternal, "pallet is required")
	}

	fill, err := s.computeFill(ctx, pallet.ID)
	if err != nil {
		return CompletionResult{}, err
	}

	rule := s.ruleFor(ctx, pallet)
	return CompletionResult{
		Complete: rule.Evaluate(fill.Stats()),
		Fill:     fill,
	}, nil
}

// SettleCompletion evaluates the pallet and, the first time the rule is
// satisfied, stamps the notification latch, advances an open pallet to
// consolidating, and fires the notifier. The boolean reports whether
// this call won the latch. A later notifier failure is logged but does
// not release the latch; the side effect is at-most-once.
func (s *service) SettleCompletion(ctx context.Context, pallet *models.Pallet) (CompletionResult, bool, error) {
	result, err := s.EvaluateCompletion(ctx, pallet)
	if err != nil {
		return CompletionResult{}, false, err
	}
	if !result.Complete || pallet.CompleteNotifiedAt != nil {
		return result, false, nil
	}

	now := time.Now().UTC()
	won, err := s.repo.MarkCompleteNotified(ctx, pallet.ID, now)
	if err != nil {
		return result, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stamp completion latch")
	}
	if !won {
		return result, false, nil
	}
	pallet.CompleteNotifiedAt = &now

	if pallet.Status == enums.PalletStatusOpen {
		if err := s.repo.UpdateStatus(ctx, pallet.ID, enums.PalletStatusConsolidating); err != nil {
			s.logg.Error(s.logg.WithPalletID(ctx, pallet.ID.String()), "failed to advance completed pallet to consolidating", err)
		} else {
			pallet.Status = enums.PalletStatusConsolidating
		}
	}

	notifyErr := s.notifier.NotifyPalletComplete(ctx, notify.PalletCompletion{
		PalletID:         pallet.ID,
		PickupZoneID:     pallet.PickupZoneID,
		DeliveryZoneID:   pallet.DeliveryZoneID,
		Bottles:          result.Fill.Bottles,
		ProfitCentsExVAT: result.Fill.ProfitCentsExVAT,
		CompletedAt:      now,
	})
	if notifyErr != nil {
		s.logg.Error(s.logg.WithPalletID(ctx, pallet.ID.String()), "pallet completion notification failed", notifyErr)
	}
	return result, true, nil
}

func (s *service) TransitionStatus(ctx context.Context, id uuid.UUID, next enums.PalletStatus) error {
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown pallet status")
	}
	pallet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pallet not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pallet")
	}
	if !pallet.Status.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "pallet status cannot move backwards").WithDetails(map[string]any{
			"current": pallet.Status,
			"next":    next,
		})
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update pallet status")
	}
	return nil
}

// SetCompletionRule replaces the pallet's stored rule. A nil or null
// payload clears it back to the capacity default. Unlike reads, a
// malformed payload here is rejected, not silently defaulted.
func (s *service) SetCompletionRule(ctx context.Context, id uuid.UUID, rule json.RawMessage) (*PalletDTO, error) {
	pallet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pallet")
	}
	parsed, err := ParseRule(rule)
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		rule = nil
	}
	pallet.CompletionRule = rule
	if err := s.repo.Update(ctx, pallet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update pallet")
	}
	return s.toDTO(ctx, pallet)
}

func (s *service) toDTO(ctx context.Context, pallet *models.Pallet) (*PalletDTO, error) {
	result, err := s.EvaluateCompletion(ctx, pallet)
	if err != nil {
		return nil, err
	}
	return &PalletDTO{
		ID:                 pallet.ID,
		PickupZoneID:       pallet.PickupZoneID,
		DeliveryZoneID:     pallet.DeliveryZoneID,
		BottleCapacity:     pallet.BottleCapacity,
		Status:             pallet.Status,
		Fill:               result.Fill,
		Complete:           result.Complete,
		CompleteNotifiedAt: pallet.CompleteNotifiedAt,
		CreatedAt:          pallet.CreatedAt,
	}, nil
}

func (s *service) computeFill(ctx context.Context, palletID uuid.UUID) (Fill, error) {
	reservations, err := s.repo.FindActiveReservations(ctx, palletID)
	if err != nil {
		return Fill{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pallet reservations")
	}

	wineIDs := collectWineIDs(reservations)
	wines, err := s.wines.FindByIDs(ctx, wineIDs)
	if err != nil {
		return Fill{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wines")
	}

	producerIDs := make([]uuid.UUID, 0, len(wines))
	seen := map[uuid.UUID]struct{}{}
	for _, wine := range wines {
		if _, ok := seen[wine.ProducerID]; ok {
			continue
		}
		seen[wine.ProducerID] = struct{}{}
		producerIDs = append(producerIDs, wine.ProducerID)
	}
	producerRows, err := s.producers.FindByIDs(ctx, producerIDs)
	if err != nil {
		return Fill{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load producers")
	}
	producers := make(map[uuid.UUID]models.Producer, len(producerRows))
	for _, producer := range producerRows {
		producers[producer.ID] = producer
	}

	fill := ComputeFill(reservations, wines, producers, s.resolveRates(ctx, wines))
	if fill.SkippedLines > 0 {
		s.logg.Warn(s.logg.WithFields(s.logg.WithPalletID(ctx, palletID.String()), map[string]any{
			"skipped_lines": fill.SkippedLines,
		}), "reservation lines skipped for missing catalog data")
	}
	return fill, nil
}

// resolveRates looks up one conversion rate per foreign cost currency
// for wines without a stored rate. A failed lookup is logged and left
// out of the map, valuing those lines at rate 1.
func (s *service) resolveRates(ctx context.Context, wines map[uuid.UUID]models.Wine) map[enums.Currency]decimal.Decimal {
	rates := map[enums.Currency]decimal.Decimal{}
	for _, wine := range wines {
		if wine.ExchangeRate != nil || wine.CostCurrency == s.local {
			continue
		}
		if _, ok := rates[wine.CostCurrency]; ok {
			continue
		}
		rate, err := s.rates.Rate(ctx, wine.CostCurrency, s.local)
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"currency": wine.CostCurrency,
			}), "fx lookup failed, valuing pallet lines at rate 1")
			continue
		}
		rates[wine.CostCurrency] = rate
	}
	return rates
}

// ruleFor parses the stored completion rule, falling back to the
// capacity default when the pallet carries none or the payload is
// unusable. A bad stored rule is logged, not fatal.
func (s *service) ruleFor(ctx context.Context, pallet *models.Pallet) Rule {
	rule, err := ParseRule(pallet.CompletionRule)
	if err != nil {
		s.logg.Warn(s.logg.WithPalletID(ctx, pallet.ID.String()), "stored completion rule invalid, using capacity default")
	}
	if rule == nil {
		capacity := pallet.BottleCapacity
		if capacity <= 0 {
			capacity = s.cfg.DefaultBottleCapacity
		}
		return DefaultRule(capacity)
	}
	return *rule
}

func collectWineIDs(reservations []models.Reservation) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, reservation := range reservations {
		for _, item := range reservation.Items {
			if _, ok := seen[item.WineID]; ok {
				continue
			}
			seen[item.WineID] = struct{}{}
			ids = append(ids, item.WineID)
		}
	}
	return ids
}
