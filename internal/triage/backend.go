package triage

import (
	"errors"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
	"gorm.io/gorm"
)

// backend is one storage tier of the degradation chain. Implementations are
// not safe for concurrent use on their own; the store serializes mutations.
type backend interface {
	Category(id media.AssetID) (Category, bool, error)
	Upsert(record CategoryRecord) error
	Remove(id media.AssetID) error
	RemoveMany(ids []media.AssetID) error
	Counts() (Counts, error)
	AppendUndo(record UndoRecord) error
	TrimUndo(limit int) error
	NewestUndo() (*UndoRecord, error)
	DeleteUndo(entryID string) error
	PurgeUndoForAssets(ids []media.AssetID) error
	UndoLength() (int64, error)
	Clear() error
	Name() string
}

// gormBackend is the persistent tier, backed by the two sqlite tables.
type gormBackend struct {
	db *gorm.DB
}

func newGormBackend(db *gorm.DB) *gormBackend {
	return &gormBackend{db: db}
}

// ping verifies that the schema is reachable before the tier is adopted.
func (b *gormBackend) ping() error {
	var count int64
	return b.db.Model(&CategoryRecord{}).Count(&count).Error
}

func (b *gormBackend) Name() string {
	return "persistent"
}

func (b *gormBackend) Category(id media.AssetID) (Category, bool, error) {
	var record CategoryRecord
	err := b.db.Where("asset_id = ?", id.String()).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Category(record.Category), true, nil
}

func (b *gormBackend) Upsert(record CategoryRecord) error {
	return b.db.Save(&record).Error
}

func (b *gormBackend) Remove(id media.AssetID) error {
	return b.db.Where("asset_id = ?", id.String()).Delete(&CategoryRecord{}).Error
}

// RemoveMany deletes in a single statement so callers can drop thousands of
// records without per-item round-trips.
func (b *gormBackend) RemoveMany(ids []media.AssetID) error {
	if len(ids) == 0 {
		return nil
	}
	return b.db.Where("asset_id IN ?", assetIDStrings(ids)).Delete(&CategoryRecord{}).Error
}

func (b *gormBackend) Counts() (Counts, error) {
	type row struct {
		Category string
		Total    int64
	}
	var rows []row
	err := b.db.Model(&CategoryRecord{}).
		Select("category, COUNT(*) AS total").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return Counts{}, err
	}
	var counts Counts
	for _, r := range rows {
		switch Category(r.Category) {
		case CategoryKeep:
			counts.Keep = r.Total
		case CategoryDelete:
			counts.Delete = r.Total
		case CategoryFavorite:
			counts.Favorite = r.Total
		}
	}
	return counts, nil
}

func (b *gormBackend) AppendUndo(record UndoRecord) error {
	return b.db.Create(&record).Error
}

func (b *gormBackend) TrimUndo(limit int) error {
	newest := b.db.Model(&UndoRecord{}).
		Select("entry_id").
		Order("entry_id DESC").
		Limit(limit)
	return b.db.Where("entry_id NOT IN (?)", newest).Delete(&UndoRecord{}).Error
}

func (b *gormBackend) NewestUndo() (*UndoRecord, error) {
	var record UndoRecord
	err := b.db.Order("entry_id DESC").Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (b *gormBackend) DeleteUndo(entryID string) error {
	return b.db.Where("entry_id = ?", entryID).Delete(&UndoRecord{}).Error
}

func (b *gormBackend) PurgeUndoForAssets(ids []media.AssetID) error {
	if len(ids) == 0 {
		return nil
	}
	return b.db.Where("asset_id IN ?", assetIDStrings(ids)).Delete(&UndoRecord{}).Error
}

func (b *gormBackend) UndoLength() (int64, error) {
	var count int64
	err := b.db.Model(&UndoRecord{}).Count(&count).Error
	return count, err
}

func (b *gormBackend) Clear() error {
	if err := b.db.Where("1 = 1").Delete(&CategoryRecord{}).Error; err != nil {
		return err
	}
	return b.db.Where("1 = 1").Delete(&UndoRecord{}).Error
}

func assetIDStrings(ids []media.AssetID) []string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	return values
}
