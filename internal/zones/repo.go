package zones

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
)

// Repository handles zone persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to zone operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new zone row.
func (r *Repository) Create(ctx context.Context, zone *models.Zone) error {
	if zone == nil {
		return fmt.Errorf("zone is required")
	}
	return r.db.WithContext(ctx).Create(zone).Error
}

// FindByID loads a zone by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	var zone models.Zone
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&zone).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

// ListByKind returns all zones of the given kind, optionally narrowed to
// a country.
func (r *Repository) ListByKind(ctx context.Context, kind enums.ZoneKind, country string) ([]models.Zone, error) {
	query := r.db.WithContext(ctx).Where("kind = ?", kind)
	if country != "" {
		query = query.Where("country = ?", country)
	}
	var zones []models.Zone
	if err := query.Order("name asc").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}
