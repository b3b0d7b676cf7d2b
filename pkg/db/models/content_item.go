package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soundleaf/soundleaf-backend/pkg/enums"
)

// ContentItem is the publishable unit of the catalog: an audiobook, an album,
// or a podcast season. chapter_count and total_duration_seconds are derived
// from the chapters table and only ever written inside the same transaction
// as the chapter mutation that changed them.
type ContentItem struct {
	ID                   int64               `gorm:"column:id;primaryKey;autoIncrement"`
	CreatorID            uuid.UUID           `gorm:"column:creator_id;type:uuid;not null;index:content_items_creator_id_idx"`
	Kind                 enums.ContentKind   `gorm:"column:kind;type:content_kind;not null"`
	Title                string              `gorm:"column:title;type:text;not null"`
	Description          string              `gorm:"column:description;type:text;not null;default:''"`
	Status               enums.ContentStatus `gorm:"column:status;type:content_status;not null;default:'draft';index:content_items_status_idx"`
	IsFree               bool                `gorm:"column:is_free;not null;default:false"`
	Price                decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	CoverPath            *string             `gorm:"column:cover_path;type:text"`
	ChapterCount         int                 `gorm:"column:chapter_count;not null;default:0"`
	TotalDurationSeconds int64               `gorm:"column:total_duration_seconds;not null;default:0"`
	RejectionReason      *string             `gorm:"column:rejection_reason;type:text"`
	SubmittedAt          *time.Time          `gorm:"column:submitted_at;type:timestamptz"`
	ReviewedAt           *time.Time          `gorm:"column:reviewed_at;type:timestamptz"`
	ArchivedAt           *time.Time          `gorm:"column:archived_at;type:timestamptz"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
