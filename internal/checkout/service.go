package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pactwine/pact-backend/internal/pallets"
	"github.com/pactwine/pact-backend/internal/reservations"
	"github.com/pactwine/pact-backend/internal/zones"
	pkgcheckout "github.com/pactwine/pact-backend/pkg/checkout"
	"github.com/pactwine/pact-backend/pkg/config"
	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type wineLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Wine, error)
}

type producerLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Producer, error)
}

type reservationWriter interface {
	WithTx(tx *gorm.DB) *reservations.Repository
	Create(ctx context.Context, reservation *models.Reservation) error
}

// CheckoutLine is one wine and quantity in the incoming cart.
type CheckoutLine struct {
	WineID   uuid.UUID `json:"wine_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// CheckoutInput is the full checkout request.
type CheckoutInput struct {
	UserID   *uuid.UUID     `json:"user_id,omitempty"`
	Country  string         `json:"country" validate:"required"`
	Postcode string         `json:"postcode" validate:"required"`
	Lines    []CheckoutLine `json:"lines" validate:"required,min=1,dive"`
}

// ValidationSummary is the dry-run result: what a checkout would do,
// without persisting anything.
type ValidationSummary struct {
	Valid               bool                             `json:"valid"`
	ProducerValidations []pkgcheckout.ProducerValidation `json:"producer_validations"`
	PickupZoneID        uuid.UUID                        `json:"pickup_zone_id"`
	DeliveryZoneID      uuid.UUID                        `json:"delivery_zone_id"`
	TotalCents          int64                            `json:"total_cents"`
	Bottles             int                              `json:"bottles"`
}

// CheckoutResult is the persisted outcome of a checkout.
type CheckoutResult struct {
	ReservationID  uuid.UUID `json:"reservation_id"`
	PalletID       uuid.UUID `json:"pallet_id"`
	PalletComplete bool      `json:"pallet_complete"`
	TotalCents     int64     `json:"total_cents"`
	Bottles        int       `json:"bottles"`
}

// Service executes checkout orchestration: carton-rule validation, lane
// resolution, reservation persistence, and the post-commit completion
// check.
type Service interface {
	Validate(ctx context.Context, input CheckoutInput) (*ValidationSummary, error)
	Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	tx           txRunner
	wines        wineLoader
	producers    producerLoader
	reservations reservationWriter
	zones        zones.Service
	pallets      pallets.Service
	cfg          config.FulfillmentConfig
	logg         *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	wineRepo wineLoader,
	producerRepo producerLoader,
	reservationRepo reservationWriter,
	zoneSvc zones.Service,
	palletSvc pallets.Service,
	cfg config.FulfillmentConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if wineRepo == nil {
		return nil, fmt.Errorf("wine loader required")
	}
	if producerRepo == nil {
		return nil, fmt.Errorf("producer loader required")
	}
	if reservationRepo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if zoneSvc == nil {
		return nil, fmt.Errorf("zone service required")
	}
	if palletSvc == nil {
		return nil, fmt.Errorf("pallet service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:           tx,
		wines:        wineRepo,
		producers:    producerRepo,
		reservations: reservationRepo,
		zones:        zoneSvc,
		pallets:      palletSvc,
		cfg:          cfg,
		logg:         logg,
	}, nil
}

// resolvedCart is the checkout input joined against the catalog.
type resolvedCart struct {
	lines       []CheckoutLine
	wines       map[uuid.UUID]models.Wine
	producers   map[uuid.UUID]models.Producer
	producerIDs []uuid.UUID
	validations []pkgcheckout.ProducerValidation
	totalCents  int64
	bottles     int
}

// Validate runs every checkout check without writing anything. A
// carton-rule miss is a regular answer here, not an error: callers use
// this endpoint to find out how many bottles are missing.
func (s *service) Validate(ctx context.Context, input CheckoutInput) (*ValidationSummary, error) {
	cart, err := s.resolveCart(ctx, input)
	if err != nil {
		typed := pkgerrors.As(err)
		if cart == nil || typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			return nil, err
		}
	}

	pickupZone, err := s.zones.ResolvePickupZone(ctx, cart.producerIDs)
	if err != nil {
		return nil, err
	}
	deliveryZone, err := s.resolveDeliveryZone(ctx, input)
	if err != nil {
		return nil, err
	}

	valid := true
	for _, v := range cart.validations {
		if !v.IsValid {
			valid = false
			break
		}
	}

	return &ValidationSummary{
		Valid:               valid,
		ProducerValidations: cart.validations,
		PickupZoneID:        pickupZone.ID,
		DeliveryZoneID:      deliveryZone.ID,
		TotalCents:          cart.totalCents,
		Bottles:             cart.bottles,
	}, nil
}

// Execute runs the full checkout. The reservation and its items commit
// atomically; the completion check runs after commit so a notifier
// outage can never roll back a sale.
func (s *service) Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	cart, err := s.resolveCart(ctx, input)
	if err != nil {
		return nil, err
	}

	pickupZone, err := s.zones.ResolvePickupZone(ctx, cart.producerIDs)
	if err != nil {
		return nil, err
	}
	deliveryZone, err := s.resolveDeliveryZone(ctx, input)
	if err != nil {
		return nil, err
	}

	pallet, err := s.pallets.EnsureLane(ctx, pickupZone.ID, deliveryZone.ID)
	if err != nil {
		return nil, err
	}

	reservation := &models.Reservation{
		UserID:         input.UserID,
		DeliveryZoneID: deliveryZone.ID,
		PalletID:       &pallet.ID,
		Status:         enums.ReservationStatusPendingPayment,
	}
	for _, line := range cart.lines {
		reservation.Items = append(reservation.Items, models.ReservationItem{
			WineID:       line.WineID,
			RequestedQty: line.Quantity,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.reservations.WithTx(tx).Create(ctx, reservation)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist reservation")
	}

	ctx = s.logg.WithReservationID(ctx, reservation.ID.String())
	s.logg.Info(s.logg.WithPalletID(ctx, pallet.ID.String()), "reservation placed")

	result, _, err := s.pallets.SettleCompletion(ctx, pallet)
	if err != nil {
		// The sale is committed; completion is re-checked by the
		// reconciliation job, so this failure is only logged.
		s.logg.Error(ctx, "post-checkout completion check failed", err)
		result = pallets.CompletionResult{}
	}

	return &CheckoutResult{
		ReservationID:  reservation.ID,
		PalletID:       pallet.ID,
		PalletComplete: result.Complete,
		TotalCents:     cart.totalCents,
		Bottles:        cart.bottles,
	}, nil
}

func (s *service) resolveCart(ctx context.Context, input CheckoutInput) (*resolvedCart, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").WithDetails(map[string]any{
				"wine_id": line.WineID,
			})
		}
	}

	wineIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		wineIDs = append(wineIDs, line.WineID)
	}
	wineRows, err := s.wines.FindByIDs(ctx, wineIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wines")
	}

	cart := &resolvedCart{lines: input.Lines, wines: wineRows}
	var missing []uuid.UUID
	producerSeen := map[uuid.UUID]struct{}{}
	for _, line := range input.Lines {
		wine, ok := wineRows[line.WineID]
		if !ok || !wine.IsActive {
			missing = append(missing, line.WineID)
			continue
		}
		if _, ok := producerSeen[wine.ProducerID]; !ok {
			producerSeen[wine.ProducerID] = struct{}{}
			cart.producerIDs = append(cart.producerIDs, wine.ProducerID)
		}
		cart.totalCents += wine.PriceCents * int64(line.Quantity)
		cart.bottles += line.Quantity
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wine not available").WithDetails(map[string]any{
			"wine_ids": missing,
		})
	}

	producerRows, err := s.producers.FindByIDs(ctx, cart.producerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load producers")
	}
	cart.producers = make(map[uuid.UUID]models.Producer, len(producerRows))
	for _, producer := range producerRows {
		cart.producers[producer.ID] = producer
	}

	ruleInputs := make([]pkgcheckout.BottleRuleInput, 0, len(input.Lines))
	for _, line := range input.Lines {
		wine := wineRows[line.WineID]
		producer, ok := cart.producers[wine.ProducerID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producer not found").WithDetails(map[string]any{
				"producer_id": wine.ProducerID,
			})
		}
		ruleInputs = append(ruleInputs, pkgcheckout.BottleRuleInput{
			WineID:          line.WineID,
			ProducerID:      producer.ID,
			ProducerGroupID: producer.GroupID,
			ProducerName:    producer.Name,
			Quantity:        line.Quantity,
		})
	}
	validations, err := pkgcheckout.ValidateBottleMultiple(ruleInputs, s.cfg.BottleMultiple)
	cart.validations = validations
	if err != nil {
		// The partially resolved cart still comes back so Validate can
		// report the breakdown alongside the violation.
		return cart, err
	}
	return cart, nil
}

// resolveDeliveryZone turns a postcode miss into a checkout validation
// error: a reservation cannot ride a pallet without a delivery end.
func (s *service) resolveDeliveryZone(ctx context.Context, input CheckoutInput) (*models.Zone, error) {
	zone, err := s.zones.MatchDeliveryZone(ctx, input.Country, input.Postcode)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no delivery zone covers the postcode").WithDetails(map[string]any{
			"country":  input.Country,
			"postcode": input.Postcode,
		})
	}
	return zone, nil
}
