package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pactwine/pact-backend/pkg/enums"
)

// Pallet is a shared shipping consolidation unit routed between one
// pickup zone and one delivery zone. Fill level is never persisted; it
// is recomputed on demand from active reservations. CompleteNotifiedAt
// is the exactly-once latch for the completion side effect.
type Pallet struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PickupZoneID       uuid.UUID          `gorm:"column:pickup_zone_id;type:uuid;not null;uniqueIndex:idx_pallets_lane"`
	DeliveryZoneID     uuid.UUID          `gorm:"column:delivery_zone_id;type:uuid;not null;uniqueIndex:idx_pallets_lane"`
	BottleCapacity     int                `gorm:"column:bottle_capacity;not null;default:720"`
	CompletionRule     json.RawMessage    `gorm:"column:completion_rule;type:jsonb"`
	Status             enums.PalletStatus `gorm:"column:status;type:pallet_status;not null;default:'open'"`
	CompleteNotifiedAt *time.Time         `gorm:"column:complete_notified_at"`
	Reservations       []Reservation      `gorm:"foreignKey:PalletID"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
