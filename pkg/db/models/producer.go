package models

import (
	"time"

	"github.com/google/uuid"
)

// Producer is a winery shipping from a single pickup zone.
type Producer struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	PickupZoneID uuid.UUID  `gorm:"column:pickup_zone_id;type:uuid;not null"`
	MOQBottles   int        `gorm:"column:moq_bottles;not null;default:0"`
	GroupID      *uuid.UUID `gorm:"column:group_id;type:uuid"`
	Wines        []Wine     `gorm:"foreignKey:ProducerID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// ProducerGroup pools producers for six-bottle-rule purposes.
type ProducerGroup struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Producers []Producer `gorm:"foreignKey:GroupID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
