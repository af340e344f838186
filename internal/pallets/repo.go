package pallets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
)

// Repository handles pallet persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to pallet operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a pallet by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pallet, error) {
	var pallet models.Pallet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pallet).Error; err != nil {
		return nil, err
	}
	return &pallet, nil
}

// List returns all pallets, newest lanes first.
func (r *Repository) List(ctx context.Context, limit int) ([]models.Pallet, error) {
	query := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var pallets []models.Pallet
	if err := query.Find(&pallets).Error; err != nil {
		return nil, err
	}
	return pallets, nil
}

// ListOpen returns pallets still accepting reservations.
func (r *Repository) ListOpen(ctx context.Context) ([]models.Pallet, error) {
	var pallets []models.Pallet
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.PalletStatusOpen).
		Order("created_at asc").
		Find(&pallets).Error; err != nil {
		return nil, err
	}
	return pallets, nil
}

// FindOrCreateLane returns the open pallet for the zone pair, creating
// one lazily on first use. The lane unique index makes a concurrent
// double-create lose cleanly; the loser re-reads the winner's row.
func (r *Repository) FindOrCreateLane(ctx context.Context, pickupZoneID, deliveryZoneID uuid.UUID, capacity int, rule json.RawMessage) (*models.Pallet, error) {
	var pallet models.Pallet
	err := r.db.WithContext(ctx).
		Where("pickup_zone_id = ? AND delivery_zone_id = ?", pickupZoneID, deliveryZoneID).
		First(&pallet).Error
	if err == nil {
		return &pallet, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	pallet = models.Pallet{
		ID:             uuid.New(),
		PickupZoneID:   pickupZoneID,
		DeliveryZoneID: deliveryZoneID,
		BottleCapacity: capacity,
		CompletionRule: rule,
		Status:         enums.PalletStatusOpen,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&pallet)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		return &pallet, nil
	}

	// Conflict: another request created the lane first.
	var existing models.Pallet
	if err := r.db.WithContext(ctx).
		Where("pickup_zone_id = ? AND delivery_zone_id = ?", pickupZoneID, deliveryZoneID).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// FindActiveReservations loads the pallet's reservations that count
// toward fill, items included.
func (r *Repository) FindActiveReservations(ctx context.Context, palletID uuid.UUID) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("pallet_id = ? AND status IN ?", palletID, enums.ActiveReservationStatuses).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// UpdateStatus persists a status change.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PalletStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Pallet{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkCompleteNotified stamps the completion latch. The IS NULL guard
// makes the stamp first-writer-wins, so the completion side effect
// fires at most once per pallet.
func (r *Repository) MarkCompleteNotified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Pallet{}).
		Where("id = ? AND complete_notified_at IS NULL", id).
		Update("complete_notified_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Update saves the provided pallet.
func (r *Repository) Update(ctx context.Context, pallet *models.Pallet) error {
	if pallet == nil {
		return fmt.Errorf("pallet is required")
	}
	return r.db.WithContext(ctx).Save(pallet).Error
}
