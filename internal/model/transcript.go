package model

import "time"

// Transcript rows are append-only: editing a transcript inserts a new
// row, and the newest row by creation time is the current one.
type Transcript struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MediaID    uint      `gorm:"column:media_id;index;not null" json:"media_id"`
	Engine     string    `gorm:"column:engine;size:64;not null" json:"engine"`
	CreatedAt  time.Time `gorm:"column:transcription_date;autoCreateTime" json:"transcription_date"`
	Text       string    `gorm:"column:text;type:text;not null" json:"text"`
	Confidence *float64  `gorm:"column:confidence" json:"confidence"`
	Status     string    `gorm:"column:status;size:32;default:completed" json:"status"`

	Media Media `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Transcript) TableName() string {
	return "transcripts"
}
