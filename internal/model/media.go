package model

import "time"

// Media is the durable record of one acquired media item. BVID is the
// externally meaningful business key and stays unique across
// re-submissions; a retry updates this row instead of inserting a
// second one.
type Media struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BVID          string    `gorm:"column:bv_number;uniqueIndex;size:64;not null" json:"bv_number"`
	Title         string    `gorm:"column:title;size:1024" json:"title"`
	Author        string    `gorm:"column:author;size:255" json:"author"`
	CreatedAt     time.Time `gorm:"column:download_date;autoCreateTime" json:"download_date"`
	VideoPath     string    `gorm:"column:video_path;size:4096" json:"video_path"`
	AudioPath     string    `gorm:"column:audio_path;size:4096" json:"audio_path"`
	ThumbnailPath string    `gorm:"column:thumbnail_path;size:4096" json:"thumbnail_path"`
	Duration      float64   `gorm:"column:duration" json:"duration"`
	Resolution    string    `gorm:"column:resolution;size:64" json:"resolution"`
	Status        string    `gorm:"column:status;size:32;index;default:processing" json:"status"`
	Metadata      string    `gorm:"column:metadata;type:text" json:"-"`

	Tags []Tag `gorm:"many2many:media_tags" json:"tags,omitempty"`
}

func (Media) TableName() string {
	return "media"
}
