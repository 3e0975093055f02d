package db

import (
	"github.com/mediascribe/mediascribe/internal/errs"
	"github.com/mediascribe/mediascribe/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func CreateTag(name, color string) (uint, error) {
	t := model.Tag{Name: name, Color: color}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&t).Error
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create tag %s", name)
	}
	if t.ID == 0 {
		return 0, errs.ErrTagExists
	}
	return t.ID, nil
}

func ListTags() ([]model.Tag, error) {
	var tags []model.Tag
	err := db.Order("name ASC").Find(&tags).Error
	return tags, errors.WithStack(err)
}

func GetTag(id uint) (*model.Tag, error) {
	var t model.Tag
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get tag %d", id)
	}
	return &t, nil
}

func UpdateTag(id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := db.Model(&model.Tag{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update tag %d", id)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteTag removes the tag and its media associations.
func DeleteTag(id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Tag{}, id)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to delete tag %d", id)
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		return errors.WithStack(tx.Where("tag_id = ?", id).Delete(&model.MediaTag{}).Error)
	})
}

// AddTagToMedia associates a tag with a media record. Adding an
// existing association is a no-op, not an error.
func AddTagToMedia(mediaID, tagID uint) error {
	if _, err := GetMedia(mediaID); err != nil {
		return err
	}
	if _, err := GetTag(tagID); err != nil {
		return err
	}
	return errors.WithStack(db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.MediaTag{MediaID: mediaID, TagID: tagID}).Error)
}

func RemoveTagFromMedia(mediaID, tagID uint) error {
	res := db.Where("media_id = ? AND tag_id = ?", mediaID, tagID).Delete(&model.MediaTag{})
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func GetMediaTags(mediaID uint) ([]model.Tag, error) {
	var tags []model.Tag
	err := db.Joins("JOIN media_tags ON media_tags.tag_id = tags.id").
		Where("media_tags.media_id = ?", mediaID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, errors.WithStack(err)
}

// SetMediaTags reconciles the association set to exactly tagIDs.
func SetMediaTags(mediaID uint, tagIDs []uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_id = ?", mediaID).Delete(&model.MediaTag{}).Error; err != nil {
			return errors.WithStack(err)
		}
		if len(tagIDs) == 0 {
			return nil
		}
		rows := make([]model.MediaTag, 0, len(tagIDs))
		for _, id := range tagIDs {
			rows = append(rows, model.MediaTag{MediaID: mediaID, TagID: id})
		}
		return errors.WithStack(tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error)
	})
}
