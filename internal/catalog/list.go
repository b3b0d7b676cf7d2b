package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
)

// ListCatalogParams filters the public catalog listing.
type ListCatalogParams struct {
	Kind   *enums.ContentKind
	Limit  int
	Cursor string
}

// ListMineParams filters a creator's own content listing.
type ListMineParams struct {
	Status *enums.ContentStatus
	Limit  int
	Cursor string
}

// ListReviewParams pages the admin review queue.
type ListReviewParams struct {
	Limit  int
	Cursor string
}

// ListResult wraps returned content items and the cursor for the next page.
type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

// ListItem is the catalog projection of a content item.
type ListItem struct {
	ID                   int64               `json:"id"`
	CreatorID            uuid.UUID           `json:"creator_id"`
	Kind                 enums.ContentKind   `json:"kind"`
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	Status               enums.ContentStatus `json:"status"`
	IsFree               bool                `json:"is_free"`
	Price                decimal.Decimal     `json:"price"`
	CoverPath            *string             `json:"cover_path,omitempty"`
	ChapterCount         int                 `json:"chapter_count"`
	TotalDurationSeconds int64               `json:"total_duration_seconds"`
	RejectionReason      *string             `json:"rejection_reason,omitempty"`
	SubmittedAt          *time.Time          `json:"submitted_at,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func toListItem(m models.ContentItem) ListItem {
	return ListItem{
		ID:                   m.ID,
		CreatorID:            m.CreatorID,
		Kind:                 m.Kind,
		Title:                m.Title,
		Description:          m.Description,
		Status:               m.Status,
		IsFree:               m.IsFree,
		Price:                m.Price,
		CoverPath:            m.CoverPath,
		ChapterCount:         m.ChapterCount,
		TotalDurationSeconds: m.TotalDurationSeconds,
		RejectionReason:      m.RejectionReason,
		SubmittedAt:          m.SubmittedAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func toListItems(rows []models.ContentItem) []ListItem {
	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}
	return items
}
