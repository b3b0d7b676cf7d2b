package models

import (
	"time"

	"github.com/soundleaf/soundleaf-backend/pkg/enums"
)

// Chapter is one playable track of a content item. chapter_index is dense
// (1..N per content item); the (content_item_id, chapter_index) uniqueness is
// DEFERRABLE INITIALLY DEFERRED in Postgres so reorders rewrite the whole
// sequence in one transaction.
type Chapter struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement"`
	ContentItemID   int64             `gorm:"column:content_item_id;not null;index:chapters_content_item_id_idx;uniqueIndex:chapters_item_index_key"`
	ChapterIndex    int               `gorm:"column:chapter_index;not null;uniqueIndex:chapters_item_index_key"`
	Title           string            `gorm:"column:title;type:text;not null"`
	StoragePath     string            `gorm:"column:storage_path;type:text;not null;unique"`
	Format          enums.AudioFormat `gorm:"column:format;type:audio_format;not null"`
	DurationSeconds int               `gorm:"column:duration_seconds;not null"`
	SizeBytes       int64             `gorm:"column:size_bytes;not null"`
	IsPreview       bool              `gorm:"column:is_preview;not null;default:false"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
