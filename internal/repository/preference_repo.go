package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/querydesk/internal/domain"
)

// PreferenceRepository persists client settings as key/value rows.
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new PreferenceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *PreferenceRepository: repository instance bound to db.
func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get retrieves a preference by key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: preference name.
// Returns:
//   - *domain.Preference: stored preference, or nil if none is stored.
//   - error: non-nil if the query fails.
func (r *PreferenceRepository) Get(ctx context.Context, key string) (*domain.Preference, error) {
	var pref domain.Preference
	err := r.db.WithContext(ctx).Where("name = ?", key).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Set creates or replaces the value stored under key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: preference name.
//   - value: value to store.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	pref := domain.Preference{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}

// List returns every stored preference ordered by key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.Preference: stored preferences.
//   - error: non-nil if the query fails.
func (r *PreferenceRepository) List(ctx context.Context) ([]domain.Preference, error) {
	var prefs []domain.Preference
	err := r.db.WithContext(ctx).Order("name").Find(&prefs).Error
	return prefs, err
}

// Delete removes key. Deleting a missing key is not an error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: preference name.
// Returns:
//   - error: non-nil if the delete fails.
func (r *PreferenceRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("name = ?", key).Delete(&domain.Preference{}).Error
}
