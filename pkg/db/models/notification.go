package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
type Notification struct {
	ID            int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	UserID        uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index:notifications_user_id_idx"`
	Type          enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title         string                 `gorm:"column:title;type:text;not null"`
	Message       string                 `gorm:"column:message;type:text;not null"`
	ContentItemID *int64                 `gorm:"column:content_item_id"`
	ReadAt        *time.Time             `gorm:"column:read_at;type:timestamptz"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}
