package wines

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pactwine/pact-backend/pkg/db/models"
)

// Repository handles wine persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to wine operations.
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

// Create persists a new wine row.
func (r *Repository) Create(ctx context.Context, wine *models.Wine) error {
	if wine == nil {
		return fmt.Errorf("wine is required")
	}
	return r.db.WithContext(ctx).Create(wine).Error
}

// Update saves the provided wine.
func (r *Repository) Update(ctx context.Context, wine *models.Wine) error {
	if wine == nil {
		return fmt.Errorf("wine is required")
	}
	return r.db.WithContext(ctx).Save(wine).Error
}

// FindByID loads a wine by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wine, error) {
	var wine models.Wine
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&wine).Error; err != nil {
		return nil, err
	}
	return &wine, nil
}

// FindByIDs loads the wines for the provided IDs, keyed by ID.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Wine, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Wine{}, nil
	}
	var rows []models.Wine
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	wines := make(map[uuid.UUID]models.Wine, len(rows))
	for _, wine := range rows {
		wines[wine.ID] = wine
	}
	return wines, nil
}

// ListByProducer returns the producer's wines, active first.
func (r *Repository) ListByProducer(ctx context.Context, producerID uuid.UUID) ([]models.Wine, error) {
	var rows []models.Wine
	if err := r.db.WithContext(ctx).
		Where("producer_id = ?", producerID).
		Order("is_active desc, name asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
