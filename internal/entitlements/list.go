package entitlements

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
)

// ListLibraryParams pages a user's library.
type ListLibraryParams struct {
	Limit  int
	Cursor string
}

// LibraryResult wraps library entries and the cursor for the next page.
type LibraryResult struct {
	Items  []LibraryItem `json:"items"`
	Cursor string        `json:"cursor"`
}

// LibraryItem is one owned content item, newest acquisition first.
type LibraryItem struct {
	ContentItemID        int64                   `json:"content_item_id"`
	CreatorID            uuid.UUID               `json:"creator_id"`
	Kind                 enums.ContentKind       `json:"kind"`
	Title                string                  `json:"title"`
	Description          string                  `json:"description"`
	Status               enums.ContentStatus     `json:"status"`
	IsFree               bool                    `json:"is_free"`
	Price                decimal.Decimal         `json:"price"`
	CoverPath            *string                 `json:"cover_path,omitempty"`
	ChapterCount         int                     `json:"chapter_count"`
	TotalDurationSeconds int64                   `json:"total_duration_seconds"`
	Source               enums.EntitlementSource `json:"source"`
	AcquiredAt           time.Time               `json:"acquired_at"`
}

func toLibraryItem(entitlement models.Entitlement, item models.ContentItem) LibraryItem {
	return LibraryItem{
		ContentItemID:        item.ID,
		CreatorID:            item.CreatorID,
		Kind:                 item.Kind,
		Title:                item.Title,
		Description:          item.Description,
		Status:               item.Status,
		IsFree:               item.IsFree,
		Price:                item.Price,
		CoverPath:            item.CoverPath,
		ChapterCount:         item.ChapterCount,
		TotalDurationSeconds: item.TotalDurationSeconds,
		Source:               entitlement.Source,
		AcquiredAt:           entitlement.CreatedAt,
	}
}
