package preferences

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository is the persistence boundary for preference records.
// Records are create-only.
type Repository interface {
	// FindMany returns every stored record in the store's native order.
	FindMany(ctx context.Context) ([]PreferenceRecord, error)
	// Create persists a record as given.
	Create(ctx context.Context, record *PreferenceRecord) error
}

// GormRepository implements Repository on gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new gorm-backed preference store
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the user_preferences table
func (r *GormRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&PreferenceRecord{}); err != nil {
		return fmt.Errorf("failed to migrate preferences table: %w", err)
	}
	return nil
}

func (r *GormRepository) FindMany(ctx context.Context) ([]PreferenceRecord, error) {
	var records []PreferenceRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	return records, nil
}

func (r *GormRepository) Create(ctx context.Context, record *PreferenceRecord) error {
	record.fillNulls()
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create preferences: %w", err)
	}
	return nil
}
