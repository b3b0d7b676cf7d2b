package entitlements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/pagination"
)

// Repository exposes entitlement persistence. It also satisfies the
// entitlement checks the catalog and chapter services consume.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entitlement *models.Entitlement) error
	FindByUserAndContent(ctx context.Context, userID uuid.UUID, contentItemID int64) (*models.Entitlement, error)
	FindByPaymentReference(ctx context.Context, reference string) (*models.Entitlement, error)
	HasEntitlement(ctx context.Context, userID uuid.UUID, contentItemID int64) (bool, error)
	ExistsForContent(ctx context.Context, contentItemID int64) (bool, error)
	ListByUser(ctx context.Context, params libraryQuery) ([]models.Entitlement, *pagination.Cursor, error)
	FindContentItem(ctx context.Context, id int64) (*models.ContentItem, error)
	FindContentItems(ctx context.Context, ids []int64) ([]models.ContentItem, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an entitlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type libraryQuery struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, entitlement *models.Entitlement) error {
	return r.db.WithContext(ctx).Create(entitlement).Error
}

func (r *repositoryImpl) FindByUserAndContent(ctx context.Context, userID uuid.UUID, contentItemID int64) (*models.Entitlement, error) {
	var entitlement models.Entitlement
	err := r.db.WithContext(ctx).
		First(&entitlement, "user_id = ? AND content_item_id = ?", userID, contentItemID).Error
	if err != nil {
		return nil, err
	}
	return &entitlement, nil
}

func (r *repositoryImpl) FindByPaymentReference(ctx context.Context, reference string) (*models.Entitlement, error) {
	var entitlement models.Entitlement
	err := r.db.WithContext(ctx).
		First(&entitlement, "payment_reference = ?", reference).Error
	if err != nil {
		return nil, err
	}
	return &entitlement, nil
}

func (r *repositoryImpl) HasEntitlement(ctx context.Context, userID uuid.UUID, contentItemID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("user_id = ? AND content_item_id = ?", userID, contentItemID).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) ExistsForContent(ctx context.Context, contentItemID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("content_item_id = ?", contentItemID).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) ListByUser(ctx context.Context, params libraryQuery) ([]models.Entitlement, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Entitlement{}).Where("user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Entitlement
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) FindContentItem(ctx context.Context, id int64) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) FindContentItems(ctx context.Context, ids []int64) ([]models.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.ContentItem
	if err := r.db.WithContext(ctx).Find(&items, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	return items, nil
}
