package db

import (
	"github.com/mediascribe/mediascribe/internal/errs"
	"github.com/mediascribe/mediascribe/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertMedia inserts a media row for bvid or returns the id of the
// existing one. Insert-or-fetch: fields of an existing row are left
// untouched, callers that want to change them go through UpdateMedia.
func UpsertMedia(m *model.Media) (uint, error) {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bv_number"}},
		DoNothing: true,
	}).Create(m).Error
	if err != nil {
		return 0, errors.Wrapf(err, "failed to upsert media %s", m.BVID)
	}
	if m.ID != 0 {
		return m.ID, nil
	}
	// conflict path: fetch the row that won
	existing, err := GetMediaByBVID(m.BVID)
	if err != nil {
		return 0, err
	}
	m.ID = existing.ID
	return existing.ID, nil
}

// UpdateMedia patches only the named columns.
func UpdateMedia(id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := db.Model(&model.Media{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update media %d", id)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func GetMedia(id uint) (*model.Media, error) {
	var m model.Media
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get media %d", id)
	}
	return &m, nil
}

func GetMediaByBVID(bvid string) (*model.Media, error) {
	var m model.Media
	if err := db.Where("bv_number = ?", bvid).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get media by bvid %s", bvid)
	}
	return &m, nil
}

// ListMedia pages through media records, optionally restricted to one
// tag. Total is counted over the whole filtered set, not the page.
func ListMedia(limit, offset int, orderBy string, tagID uint) ([]model.Media, int64, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	switch orderBy {
	case "download_date DESC", "download_date ASC", "title ASC", "title DESC":
	default:
		orderBy = "download_date DESC"
	}

	tx := db.Model(&model.Media{})
	if tagID != 0 {
		tx = tx.Joins("JOIN media_tags ON media_tags.media_id = media.id").
			Where("media_tags.tag_id = ?", tagID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	var records []model.Media
	err := tx.Preload("Tags").
		Order(orderBy).
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	return records, total, errors.WithStack(err)
}

// DeleteMedia removes the record and everything hanging off it in one
// transaction: transcripts and tag associations go with it.
func DeleteMedia(id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Media{}, id)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to delete media %d", id)
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		if err := tx.Where("media_id = ?", id).Delete(&model.Transcript{}).Error; err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(tx.Where("media_id = ?", id).Delete(&model.MediaTag{}).Error)
	})
}
