package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

type reservationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReservationStatus) error
	ApproveItem(ctx context.Context, itemID uuid.UUID, approvedQty int) error
}

// ItemApproval is one producer decision on a reservation line. Zero
// approves nothing on the line; anything above the requested quantity
// is rejected.
type ItemApproval struct {
	ItemID      uuid.UUID
	ApprovedQty int
}

// Service exposes the producer review flow over reservations.
type Service interface {
	Approve(ctx context.Context, reservationID uuid.UUID, approvals []ItemApproval) (*models.Reservation, error)
}

type service struct {
	repo reservationStore
	logg *logger.Logger
}

// NewService builds a reservation service with the provided dependencies.
func NewService(repo reservationStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// reviewableStatuses are the states a producer can still act on.
var reviewableStatuses = []enums.ReservationStatus{
	enums.ReservationStatusPendingPayment,
	enums.ReservationStatusPlaced,
	enums.ReservationStatusPartlyApproved,
}

// Approve records the producer's per-line decisions and derives the
// reservation status from the totals: everything granted in full means
// approved, nothing granted means declined, anything in between is
// partly approved.
func (s *service) Approve(ctx context.Context, reservationID uuid.UUID, approvals []ItemApproval) (*models.Reservation, error) {
	if len(approvals) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item decision is required")
	}

	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reservation")
	}
	if !reviewable(reservation.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not awaiting review").WithDetails(map[string]any{
			"status": reservation.Status,
		})
	}

	items := map[uuid.UUID]models.ReservationItem{}
	for _, item := range reservation.Items {
		items[item.ID] = item
	}
	for _, approval := range approvals {
		item, ok := items[approval.ItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not belong to the reservation").WithDetails(map[string]any{
				"item_id": approval.ItemID,
			})
		}
		if approval.ApprovedQty < 0 || approval.ApprovedQty > item.RequestedQty {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "approved quantity must be between zero and the requested quantity").WithDetails(map[string]any{
				"item_id":       approval.ItemID,
				"requested_qty": item.RequestedQty,
				"approved_qty":  approval.ApprovedQty,
			})
		}
		if err := s.repo.ApproveItem(ctx, approval.ItemID, approval.ApprovedQty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record item approval")
		}
	}

	reservation, err = s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload reservation")
	}

	next := deriveStatus(reservation.Items)
	if err := s.repo.UpdateStatus(ctx, reservationID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update reservation status")
	}
	reservation.Status = next
	return reservation, nil
}

func reviewable(status enums.ReservationStatus) bool {
	for _, candidate := range reviewableStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// deriveStatus folds the per-line decisions into a reservation status.
// Lines without a decision yet keep the reservation partly approved.
func deriveStatus(items []models.ReservationItem) enums.ReservationStatus {
	fully, granted, decided := true, 0, true
	for _, item := range items {
		if item.ApprovedQty == nil {
			decided = false
			fully = false
			continue
		}
		granted += *item.ApprovedQty
		if *item.ApprovedQty < item.RequestedQty {
			fully = false
		}
	}
	switch {
	case fully:
		return enums.ReservationStatusApproved
	case granted == 0 && decided:
		return enums.ReservationStatusDeclined
	default:
		return enums.ReservationStatusPartlyApproved
	}
}
