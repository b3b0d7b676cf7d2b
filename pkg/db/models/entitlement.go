package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/pkg/enums"
)

// Entitlement records that a user owns access to a content item. Rows are
// append-only; the (user_id, content_item_id) uniqueness is the storage-layer
// backstop every claim and grant path leans on. payment_reference carries a
// partial unique index in Postgres so a replayed payment event cannot grant
// twice.
type Entitlement struct {
	ID               int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	UserID           uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index:entitlements_user_id_idx;uniqueIndex:entitlements_user_content_key"`
	ContentItemID    int64                   `gorm:"column:content_item_id;not null;index:entitlements_content_item_id_idx;uniqueIndex:entitlements_user_content_key"`
	Source           enums.EntitlementSource `gorm:"column:source;type:entitlement_source;not null"`
	PaymentReference *string                 `gorm:"column:payment_reference;type:text"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
}
