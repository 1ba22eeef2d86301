package extension

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	entity "extensions.GO/model/entity"
)

type ExtensionRepository struct {
	db *gorm.DB
}

func NewExtensionRepository(db *gorm.DB) *ExtensionRepository {
	return &ExtensionRepository{db: db}
}

// Migrate creates the extension_installs table.
func (r *ExtensionRepository) Migrate() error {
	return r.db.AutoMigrate(&entity.ExtensionInstall{})
}

// Upsert inserts rec or, when the name exists, replaces its version, type, path and manifest.
func (r *ExtensionRepository) Upsert(ctx context.Context, rec *entity.ExtensionInstall) error {
	rec.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "type", "path", "manifest", "updated_at"}),
	}).Create(rec).Error
}

// FindByName returns the install record for name, or nil when none exists.
func (r *ExtensionRepository) FindByName(ctx context.Context, name string) (*entity.ExtensionInstall, error) {
	var rec entity.ExtensionInstall
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FetchAll returns every install record ordered by name.
func (r *ExtensionRepository) FetchAll(ctx context.Context) ([]entity.ExtensionInstall, error) {
	var recs []entity.ExtensionInstall
	if err := r.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// Delete removes the record for name.
func (r *ExtensionRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Where("name = ?", name).Delete(&entity.ExtensionInstall{}).Error
}
