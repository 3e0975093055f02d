package db

import (
	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/internal/errs"
	"github.com/mediascribe/mediascribe/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AddTranscript appends a transcript row and flips the media record to
// transcribed in the same transaction.
func AddTranscript(mediaID uint, text, engine string, confidence *float64) (uint, error) {
	t := model.Transcript{
		MediaID:    mediaID,
		Engine:     engine,
		Text:       text,
		Confidence: confidence,
		Status:     "completed",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Media{}).Where("id = ?", mediaID).Count(&count).Error; err != nil {
			return errors.WithStack(err)
		}
		if count == 0 {
			return errs.ErrNotFound
		}
		if err := tx.Create(&t).Error; err != nil {
			return errors.Wrapf(err, "failed to add transcript for media %d", mediaID)
		}
		return errors.WithStack(tx.Model(&model.Media{}).
			Where("id = ?", mediaID).
			Update("status", conf.StatusTranscribed).Error)
	})
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

func GetTranscript(id uint) (*model.Transcript, error) {
	var t model.Transcript
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get transcript %d", id)
	}
	return &t, nil
}

// GetLatestTranscript returns the current transcript of a media
// record, i.e. the newest row by creation time.
func GetLatestTranscript(mediaID uint) (*model.Transcript, error) {
	var t model.Transcript
	err := db.Where("media_id = ?", mediaID).
		Order("transcription_date DESC").
		Order("id DESC").
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get latest transcript for media %d", mediaID)
	}
	return &t, nil
}

func ListTranscripts(mediaID uint) ([]model.Transcript, error) {
	var ts []model.Transcript
	err := db.Where("media_id = ?", mediaID).
		Order("transcription_date DESC").
		Order("id DESC").
		Find(&ts).Error
	return ts, errors.WithStack(err)
}
