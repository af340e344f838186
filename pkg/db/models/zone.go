package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pactwine/pact-backend/pkg/enums"
)

// Zone is a geographic region used to route reservations to pallet lanes.
// Pickup zones group producers; delivery zones group customer addresses.
type Zone struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string         `gorm:"column:name;not null"`
	Kind             enums.ZoneKind `gorm:"column:kind;type:zone_kind;not null"`
	Country          string         `gorm:"column:country;not null"`
	PostcodePrefixes pq.StringArray `gorm:"column:postcode_prefixes;type:text[];default:ARRAY[]::text[]"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
