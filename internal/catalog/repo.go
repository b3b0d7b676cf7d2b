package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	"github.com/soundleaf/soundleaf-backend/pkg/pagination"
)

// Repository exposes content item persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.ContentItem) error
	FindByID(ctx context.Context, id int64) (*models.ContentItem, error)
	Save(ctx context.Context, item *models.ContentItem) error
	Delete(ctx context.Context, id int64) error
	ListCatalog(ctx context.Context, params catalogQuery) ([]models.ContentItem, *pagination.Cursor, error)
	ListByCreator(ctx context.Context, params creatorQuery) ([]models.ContentItem, *pagination.Cursor, error)
	ListReviewQueue(ctx context.Context, params reviewQuery) ([]models.ContentItem, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a content repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type catalogQuery struct {
	Kind   *enums.ContentKind
	Limit  int
	Cursor *pagination.Cursor
}

type creatorQuery struct {
	CreatorID uuid.UUID
	Status    *enums.ContentStatus
	Limit     int
	Cursor    *pagination.Cursor
}

type reviewQuery struct {
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, item *models.ContentItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id int64) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) Save(ctx context.Context, item *models.ContentItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.ContentItem{}, "id = ?", id).Error
}

func (r *repositoryImpl) ListCatalog(ctx context.Context, params catalogQuery) ([]models.ContentItem, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("status = ?", enums.ContentStatusApproved).
		Where("archived_at IS NULL")
	if params.Kind != nil {
		query = query.Where("kind = ?", *params.Kind)
	}
	return r.page(query, params.Limit, params.Cursor)
}

func (r *repositoryImpl) ListByCreator(ctx context.Context, params creatorQuery) ([]models.ContentItem, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("creator_id = ?", params.CreatorID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	return r.page(query, params.Limit, params.Cursor)
}

func (r *repositoryImpl) ListReviewQueue(ctx context.Context, params reviewQuery) ([]models.ContentItem, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("status = ?", enums.ContentStatusSubmitted)
	return r.page(query, params.Limit, params.Cursor)
}

func (r *repositoryImpl) page(query *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.ContentItem, *pagination.Cursor, error) {
	buffered := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ContentItem
	if err := query.Order("created_at DESC, id DESC").Limit(buffered).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}
