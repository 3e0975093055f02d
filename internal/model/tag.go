package model

import "time"

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex;size:255;not null" json:"name"`
	Color     string    `gorm:"column:color;size:32;default:#3498db" json:"color"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Tag) TableName() string {
	return "tags"
}

// MediaTag is the join row between media and tags. Composite primary
// key keeps duplicate associations out at the schema level.
type MediaTag struct {
	MediaID uint      `gorm:"column:media_id;primaryKey" json:"media_id"`
	TagID   uint      `gorm:"column:tag_id;primaryKey" json:"tag_id"`
	AddedAt time.Time `gorm:"column:added_at;autoCreateTime" json:"added_at"`

	Media Media `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tag   Tag   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (MediaTag) TableName() string {
	return "media_tags"
}
