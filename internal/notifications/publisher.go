package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
)

type creatorRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Publisher records user-facing notifications for domain events. Publishing is
// fire-and-forget: a failed insert is logged and never propagates to the
// operation that triggered it.
type Publisher interface {
	ContentApproved(ctx context.Context, item *models.ContentItem)
	ContentRejected(ctx context.Context, item *models.ContentItem, reason string)
	ClaimConfirmed(ctx context.Context, userID uuid.UUID, item *models.ContentItem)
	PurchaseConfirmed(ctx context.Context, userID uuid.UUID, item *models.ContentItem)
}

type publisher struct {
	repo creatorRepository
	logg *logger.Logger
}

// NewPublisher wires the notification publisher.
func NewPublisher(repo creatorRepository, logg *logger.Logger) (Publisher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &publisher{repo: repo, logg: logg}, nil
}

func (p *publisher) ContentApproved(ctx context.Context, item *models.ContentItem) {
	if item == nil {
		return
	}
	p.publish(ctx, &models.Notification{
		UserID:        item.CreatorID,
		Type:          enums.NotificationTypeContentApproved,
		Title:         "Content approved",
		Message:       fmt.Sprintf("%q is now live in the catalog.", item.Title),
		ContentItemID: &item.ID,
	})
}

func (p *publisher) ContentRejected(ctx context.Context, item *models.ContentItem, reason string) {
	if item == nil {
		return
	}
	message := fmt.Sprintf("%q was rejected.", item.Title)
	if reason != "" {
		message = fmt.Sprintf("%q was rejected. Reason: %s", item.Title, reason)
	}
	p.publish(ctx, &models.Notification{
		UserID:        item.CreatorID,
		Type:          enums.NotificationTypeContentRejected,
		Title:         "Content rejected",
		Message:       message,
		ContentItemID: &item.ID,
	})
}

func (p *publisher) ClaimConfirmed(ctx context.Context, userID uuid.UUID, item *models.ContentItem) {
	if item == nil || userID == uuid.Nil {
		return
	}
	p.publish(ctx, &models.Notification{
		UserID:        userID,
		Type:          enums.NotificationTypeClaimConfirmed,
		Title:         "Added to your library",
		Message:       fmt.Sprintf("%q is now in your library.", item.Title),
		ContentItemID: &item.ID,
	})
}

func (p *publisher) PurchaseConfirmed(ctx context.Context, userID uuid.UUID, item *models.ContentItem) {
	if item == nil || userID == uuid.Nil {
		return
	}
	p.publish(ctx, &models.Notification{
		UserID:        userID,
		Type:          enums.NotificationTypePurchaseConfirmed,
		Title:         "Purchase confirmed",
		Message:       fmt.Sprintf("Your purchase of %q is complete.", item.Title),
		ContentItemID: &item.ID,
	})
}

func (p *publisher) publish(ctx context.Context, notification *models.Notification) {
	if err := p.repo.Create(ctx, notification); err != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"notification_type": string(notification.Type),
			"user_id":           notification.UserID.String(),
		})
		p.logg.Error(logCtx, "failed to record notification", err)
	}
}
