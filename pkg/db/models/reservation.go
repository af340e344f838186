package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pactwine/pact-backend/pkg/enums"
)

// Reservation is a customer's claim on bottles, routed to a pallet.
// UserID is nil for guest checkouts; PalletID is nil until a lane is
// resolved.
type Reservation struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         *uuid.UUID              `gorm:"column:user_id;type:uuid"`
	DeliveryZoneID uuid.UUID               `gorm:"column:delivery_zone_id;type:uuid;not null"`
	PalletID       *uuid.UUID              `gorm:"column:pallet_id;type:uuid"`
	Status         enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null;default:'pending_payment'"`
	Items          []ReservationItem       `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// ReservationItem is one wine line inside a reservation. ApprovedQty
// models partial producer approval: nil means the requested quantity
// stands, a value overrides it and must not exceed RequestedQty.
type ReservationItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReservationID uuid.UUID `gorm:"column:reservation_id;type:uuid;not null"`
	WineID        uuid.UUID `gorm:"column:wine_id;type:uuid;not null"`
	RequestedQty  int       `gorm:"column:requested_qty;not null"`
	ApprovedQty   *int      `gorm:"column:approved_qty"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveQty returns the approved quantity when set, else the
// requested quantity.
func (i ReservationItem) EffectiveQty() int {
	if i.ApprovedQty != nil {
		return *i.ApprovedQty
	}
	return i.RequestedQty
}
