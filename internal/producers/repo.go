package producers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pactwine/pact-backend/pkg/db/models"
)

// Repository handles producer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to producer operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new producer row.
func (r *Repository) Create(ctx context.Context, producer *models.Producer) error {
	if producer == nil {
		return fmt.Errorf("producer is required")
	}
	return r.db.WithContext(ctx).Create(producer).Error
}

// FindByID loads a producer by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Producer, error) {
	var producer models.Producer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&producer).Error; err != nil {
		return nil, err
	}
	return &producer, nil
}

// FindByIDs loads the producers for the provided IDs. Missing IDs are
// simply absent from the result; callers decide whether that is fatal.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Producer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var producers []models.Producer
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&producers).Error; err != nil {
		return nil, err
	}
	return producers, nil
}

// FindGroupByID loads a producer group with its members.
func (r *Repository) FindGroupByID(ctx context.Context, id uuid.UUID) (*models.ProducerGroup, error) {
	var group models.ProducerGroup
	if err := r.db.WithContext(ctx).Preload("Producers").Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}
