package reservations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
)

// Repository handles reservation persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to reservation operations.
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

// Create persists a reservation and its items in one write. IDs are
// generated app-side so the write works the same on every driver.
func (r *Repository) Create(ctx context.Context, reservation *models.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is required")
	}
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	for i := range reservation.Items {
		if reservation.Items[i].ID == uuid.Nil {
			reservation.Items[i].ID = uuid.New()
		}
		reservation.Items[i].ReservationID = reservation.ID
	}
	return r.db.WithContext(ctx).Create(reservation).Error
}

// FindByID loads a reservation with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdateStatus persists a reservation status change.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReservationStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
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

// ApproveItem records a producer's partial approval on one line. The
// approved quantity can never exceed what the customer asked for.
func (r *Repository) ApproveItem(ctx context.Context, itemID uuid.UUID, approvedQty int) error {
	if approvedQty < 0 {
		return fmt.Errorf("approved quantity must not be negative")
	}
	result := r.db.WithContext(ctx).
		Model(&models.ReservationItem{}).
		Where("id = ? AND requested_qty >= ?", itemID, approvedQty).
		Update("approved_qty", approvedQty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByPallet returns every reservation routed to the pallet.
func (r *Repository) ListByPallet(ctx context.Context, palletID uuid.UUID) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("pallet_id = ?", palletID).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}
