package entitlements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soundleaf/soundleaf-backend/internal/authz"
	"github.com/soundleaf/soundleaf-backend/pkg/db"
	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/metrics"
	"github.com/soundleaf/soundleaf-backend/pkg/pagination"
)

type notificationPublisher interface {
	ClaimConfirmed(ctx context.Context, userID uuid.UUID, item *models.ContentItem)
	PurchaseConfirmed(ctx context.Context, userID uuid.UUID, item *models.ContentItem)
}

// Service exposes entitlement grants and the library listing. Both grant
// paths are idempotent: repeating a claim or replaying a payment event
// returns the existing row instead of failing.
type Service interface {
	ClaimFree(ctx context.Context, actor authz.Actor, contentItemID int64) (*models.Entitlement, error)
	GrantPurchase(ctx context.Context, userID uuid.UUID, contentItemID int64, paymentReference string) (*models.Entitlement, error)
	ListLibrary(ctx context.Context, actor authz.Actor, params ListLibraryParams) (*LibraryResult, error)
}

type service struct {
	repo     Repository
	notifier notificationPublisher
	claims   *metrics.ClaimMetrics
	logg     *logger.Logger
}

// NewService builds the entitlement service backed by the provided collaborators.
func NewService(repo Repository, notifier notificationPublisher, claims *metrics.ClaimMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("entitlement repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, notifier: notifier, claims: claims, logg: logg}, nil
}

// ClaimFree grants a free content item to the actor. The existing-row fast
// path and the unique-violation fallback both resolve repeats to the original
// entitlement, so the endpoint can be retried blindly.
func (s *service) ClaimFree(ctx context.Context, actor authz.Actor, contentItemID int64) (*models.Entitlement, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	item, err := s.loadItem(ctx, contentItemID)
	if err != nil {
		return nil, err
	}

	existing, err := s.findExisting(ctx, actor.UserID, contentItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.claims.IncDuplicate()
		return existing, nil
	}

	if err := authz.EnsureReadable(authz.ReadInput{Actor: actor, Item: item}); err != nil {
		return nil, err
	}
	if !item.IsFree || item.Status != enums.ContentStatusApproved {
		s.claims.IncNotEligible()
		return nil, pkgerrors.New(pkgerrors.CodeNotEligible, "content is not available for free claim")
	}

	entitlement := &models.Entitlement{
		UserID:        actor.UserID,
		ContentItemID: contentItemID,
		Source:        enums.EntitlementSourceFree,
	}
	if err := s.repo.Create(ctx, entitlement); err != nil {
		// Lost the race against a concurrent claim; the winner's row is ours too.
		if db.IsUniqueViolation(err, "") {
			winner, findErr := s.findExisting(ctx, actor.UserID, contentItemID)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				s.claims.IncDuplicate()
				return winner, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create entitlement")
	}

	s.claims.IncGranted("free")
	s.notifier.ClaimConfirmed(ctx, actor.UserID, item)
	return entitlement, nil
}

// GrantPurchase records a paid entitlement from a verified payment event.
// Replays of the same payment reference and repeat grants for a user who
// already owns the item both return the existing row.
func (s *service) GrantPurchase(ctx context.Context, userID uuid.UUID, contentItemID int64, paymentReference string) (*models.Entitlement, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	reference := strings.TrimSpace(paymentReference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	replayed, err := s.repo.FindByPaymentReference(ctx, reference)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up payment reference")
	}
	if replayed != nil {
		s.claims.IncDuplicate()
		return replayed, nil
	}

	item, err := s.loadItem(ctx, contentItemID)
	if err != nil {
		return nil, err
	}
	existing, err := s.findExisting(ctx, userID, contentItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.claims.IncDuplicate()
		return existing, nil
	}

	entitlement := &models.Entitlement{
		UserID:           userID,
		ContentItemID:    contentItemID,
		Source:           enums.EntitlementSourcePurchase,
		PaymentReference: &reference,
	}
	if err := s.repo.Create(ctx, entitlement); err != nil {
		if db.IsUniqueViolation(err, "") {
			winner, findErr := s.findExisting(ctx, userID, contentItemID)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				s.claims.IncDuplicate()
				return winner, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create entitlement")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":         userID.String(),
		"content_item_id": contentItemID,
		"source":          enums.EntitlementSourcePurchase.String(),
	})
	s.logg.Info(logCtx, "entitlement granted")

	s.claims.IncGranted("purchase")
	s.notifier.PurchaseConfirmed(ctx, userID, item)
	return entitlement, nil
}

func (s *service) ListLibrary(ctx context.Context, actor authz.Actor, params ListLibraryParams) (*LibraryResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := s.repo.ListByUser(ctx, libraryQuery{UserID: actor.UserID, Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list library")
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ContentItemID
	}
	items, err := s.repo.FindContentItems(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load library items")
	}
	byID := make(map[int64]models.ContentItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	result := &LibraryResult{Items: make([]LibraryItem, 0, len(rows))}
	for _, row := range rows {
		item, ok := byID[row.ContentItemID]
		if !ok {
			continue
		}
		result.Items = append(result.Items, toLibraryItem(row, item))
	}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) findExisting(ctx context.Context, userID uuid.UUID, contentItemID int64) (*models.Entitlement, error) {
	existing, err := s.repo.FindByUserAndContent(ctx, userID, contentItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up entitlement")
	}
	return existing, nil
}

func (s *service) loadItem(ctx context.Context, id int64) (*models.ContentItem, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content id is required")
	}
	item, err := s.repo.FindContentItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load content item")
	}
	return item, nil
}
