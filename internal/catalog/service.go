package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/soundleaf/soundleaf-backend/internal/authz"
	"github.com/soundleaf/soundleaf-backend/pkg/config"
	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/metrics"
	"github.com/soundleaf/soundleaf-backend/pkg/pagination"
	"github.com/soundleaf/soundleaf-backend/pkg/storage"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type objectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

type entitlementsChecker interface {
	HasEntitlement(ctx context.Context, userID uuid.UUID, contentItemID int64) (bool, error)
	ExistsForContent(ctx context.Context, contentItemID int64) (bool, error)
}

type chaptersCollaborator interface {
	ListStoragePaths(ctx context.Context, contentItemID int64) ([]string, error)
	DeleteForContentItem(ctx context.Context, tx *gorm.DB, contentItemID int64) error
}

type notificationPublisher interface {
	ContentApproved(ctx context.Context, item *models.ContentItem)
	ContentRejected(ctx context.Context, item *models.ContentItem, reason string)
}

// Service exposes content lifecycle, catalog listing, and cover upload
// semantics.
type Service interface {
	CreateDraft(ctx context.Context, actor authz.Actor, input CreateDraftInput) (*models.ContentItem, error)
	UpdateItem(ctx context.Context, actor authz.Actor, id int64, input UpdateItemInput) (*models.ContentItem, error)
	Submit(ctx context.Context, actor authz.Actor, id int64) (*models.ContentItem, error)
	Approve(ctx context.Context, actor authz.Actor, id int64) (*models.ContentItem, error)
	Reject(ctx context.Context, actor authz.Actor, id int64, reason string) (*models.ContentItem, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
	GetItem(ctx context.Context, actor authz.Actor, id int64) (*models.ContentItem, error)
	ListCatalog(ctx context.Context, params ListCatalogParams) (*ListResult, error)
	ListMine(ctx context.Context, actor authz.Actor, params ListMineParams) (*ListResult, error)
	ListReviewQueue(ctx context.Context, actor authz.Actor, params ListReviewParams) (*ListResult, error)
	UploadCover(ctx context.Context, actor authz.Actor, id int64, upload CoverUpload) (*models.ContentItem, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	store        objectStore
	entitlements entitlementsChecker
	chapters     chaptersCollaborator
	notifier     notificationPublisher
	uploads      *metrics.UploadMetrics
	media        config.MediaConfig
	logg         *logger.Logger
}

// CreateDraftInput holds the metadata for a new draft content item.
type CreateDraftInput struct {
	Kind        enums.ContentKind
	Title       string
	Description string
	IsFree      bool
	Price       decimal.Decimal
}

// UpdateItemInput patches draft metadata; nil fields are left untouched.
type UpdateItemInput struct {
	Title       *string
	Description *string
	Kind        *enums.ContentKind
	IsFree      *bool
	Price       *decimal.Decimal
}

// CoverUpload carries one cover image upload.
type CoverUpload struct {
	Reader   io.Reader
	Size     int64
	Filename string
}

// NewService builds the content service backed by the provided collaborators.
func NewService(repo Repository, tx txRunner, store objectStore, entitlements entitlementsChecker, chapters chaptersCollaborator, notifier notificationPublisher, uploads *metrics.UploadMetrics, media config.MediaConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("content repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if entitlements == nil {
		return nil, fmt.Errorf("entitlements repository required")
	}
	if chapters == nil {
		return nil, fmt.Errorf("chapters repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         repo,
		tx:           tx,
		store:        store,
		entitlements: entitlements,
		chapters:     chapters,
		notifier:     notifier,
		uploads:      uploads,
		media:        media,
		logg:         logg,
	}, nil
}

func (s *service) CreateDraft(ctx context.Context, actor authz.Actor, input CreateDraftInput) (*models.ContentItem, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.Role.CanPublish() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "creator role required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid content kind")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if err := validatePricing(input.IsFree, input.Price); err != nil {
		return nil, err
	}

	item := &models.ContentItem{
		CreatorID:   actor.UserID,
		Kind:        input.Kind,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      enums.ContentStatusDraft,
		IsFree:      input.IsFree,
		Price:       input.Price,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create content item")
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, actor authz.Actor, id int64, input UpdateItemInput) (*models.ContentItem, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureWritable(actor, item); err != nil {
		return nil, err
	}
	if item.Status == enums.ContentStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "content is locked while under review")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		item.Title = title
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.Kind != nil {
		if !input.Kind.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid content kind")
		}
		item.Kind = *input.Kind
	}
	if input.IsFree != nil {
		item.IsFree = *input.IsFree
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if err := validatePricing(item.IsFree, item.Price); err != nil {
		return nil, err
	}

	// Editing published content pulls it back into the review queue.
	if item.Status == enums.ContentStatusApproved {
		if err := s.moveToSubmitted(item); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update content item")
	}
	return item, nil
}

func (s *service) Submit(ctx context.Context, actor authz.Actor, id int64) (*models.ContentItem, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureWritable(actor, item); err != nil {
		return nil, err
	}
	if !item.Status.CanTransitionTo(enums.ContentStatusSubmitted) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot submit content in status %s", item.Status))
	}
	if err := s.moveToSubmitted(item); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit content item")
	}
	return item, nil
}

func (s *service) Approve(ctx context.Context, actor authz.Actor, id int64) (*models.ContentItem, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Status.CanTransitionTo(enums.ContentStatusApproved) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot approve content in status %s", item.Status))
	}

	now := time.Now().UTC()
	item.Status = enums.ContentStatusApproved
	item.ReviewedAt = &now
	item.RejectionReason = nil
	item.ArchivedAt = nil
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve content item")
	}

	s.notifier.ContentApproved(ctx, item)
	return item, nil
}

func (s *service) Reject(ctx context.Context, actor authz.Actor, id int64, reason string) (*models.ContentItem, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Status.CanTransitionTo(enums.ContentStatusRejected) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot reject content in status %s", item.Status))
	}

	now := time.Now().UTC()
	item.Status = enums.ContentStatusRejected
	item.ReviewedAt = &now
	item.RejectionReason = &reason
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject content item")
	}

	s.notifier.ContentRejected(ctx, item, reason)
	return item, nil
}

// Delete removes a content item. Items someone already owns are soft-archived
// so entitlements keep working; items nobody owns are removed outright along
// with their blobs.
func (s *service) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.EnsureWritable(actor, item); err != nil {
		return err
	}

	owned, err := s.entitlements.ExistsForContent(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check entitlements")
	}

	if owned {
		now := time.Now().UTC()
		item.Status = enums.ContentStatusRejected
		item.ArchivedAt = &now
		if err := s.repo.Save(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive content item")
		}
		return nil
	}

	keys, err := s.chapters.ListStoragePaths(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chapter blobs")
	}
	if item.CoverPath != nil && *item.CoverPath != "" {
		keys = append(keys, *item.CoverPath)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.chapters.DeleteForContentItem(ctx, tx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete chapters")
		}
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete content item")
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Blob removal is best effort; the sweeper reaps anything missed here.
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logg.Error(s.logg.WithContentItemID(ctx, id), "failed to delete blob", err)
		}
	}
	return nil
}

func (s *service) GetItem(ctx context.Context, actor authz.Actor, id int64) (*models.ContentItem, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}

	hasEntitlement := false
	if actor.UserID != uuid.Nil {
		hasEntitlement, err = s.entitlements.HasEntitlement(ctx, actor.UserID, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check entitlement")
		}
	}
	if err := authz.EnsureReadable(authz.ReadInput{Actor: actor, Item: item, HasEntitlement: hasEntitlement}); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) ListCatalog(ctx context.Context, params ListCatalogParams) (*ListResult, error) {
	if params.Kind != nil && !params.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid content kind")
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	rows, next, err := s.repo.ListCatalog(ctx, catalogQuery{Kind: params.Kind, Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ListMine(ctx context.Context, actor authz.Actor, params ListMineParams) (*ListResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid content status")
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	rows, next, err := s.repo.ListByCreator(ctx, creatorQuery{CreatorID: actor.UserID, Status: params.Status, Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list creator content")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ListReviewQueue(ctx context.Context, actor authz.Actor, params ListReviewParams) (*ListResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	rows, next, err := s.repo.ListReviewQueue(ctx, reviewQuery{Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list review queue")
	}
	return buildListResult(rows, next), nil
}

// UploadCover stores the image blob first and only then points the row at it,
// so the row never references a missing blob. A failed row update deletes the
// fresh blob on a best-effort basis.
func (s *service) UploadCover(ctx context.Context, actor authz.Actor, id int64, upload CoverUpload) (*models.ContentItem, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureWritable(actor, item); err != nil {
		return nil, err
	}
	if item.Status == enums.ContentStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "content is locked while under review")
	}

	if upload.Reader == nil || upload.Size <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cover file is required")
	}
	if upload.Size > s.media.MaxCoverUploadBytes() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cover exceeds the %dMB limit", s.media.MaxCoverUploadMB))
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	contentType, ok := coverContentTypes[ext]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cover must be a jpeg, png, or webp image")
	}

	start := time.Now()
	key := storage.CoverKey(id, uuid.New(), ext)
	if err := s.store.Put(ctx, key, upload.Reader, upload.Size, contentType); err != nil {
		s.uploads.IncFailure("cover")
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "store cover image")
	}

	oldPath := item.CoverPath
	item.CoverPath = &key
	if item.Status == enums.ContentStatusApproved {
		if err := s.moveToSubmitted(item); err != nil {
			s.compensateCover(ctx, id, key)
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, item); err != nil {
		s.uploads.IncFailure("cover")
		s.compensateCover(ctx, id, key)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cover path")
	}

	s.uploads.IncSuccess("cover")
	s.uploads.ObserveDuration("cover", time.Since(start))

	if oldPath != nil && *oldPath != "" && *oldPath != key {
		if err := s.store.Delete(ctx, *oldPath); err != nil {
			s.logg.Error(s.logg.WithContentItemID(ctx, id), "failed to delete previous cover", err)
		}
	}
	return item, nil
}

func (s *service) compensateCover(ctx context.Context, id int64, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.uploads.IncCompensationFailure("cover")
		s.logg.Error(s.logg.WithContentItemID(ctx, id), "cover compensation delete failed", err)
	}
}

func (s *service) loadItem(ctx context.Context, id int64) (*models.ContentItem, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content id is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load content item")
	}
	return item, nil
}

// moveToSubmitted applies the shared transition guard: review needs at least
// one chapter to listen to.
func (s *service) moveToSubmitted(item *models.ContentItem) error {
	if item.ChapterCount < 1 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "at least one chapter is required before review")
	}
	now := time.Now().UTC()
	item.Status = enums.ContentStatusSubmitted
	item.SubmittedAt = &now
	item.ReviewedAt = nil
	item.RejectionReason = nil
	return nil
}

func validatePricing(isFree bool, price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if isFree && !price.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "free content cannot carry a price")
	}
	if !isFree && price.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "paid content requires a price")
	}
	return nil
}

func parseCursor(raw string) (*pagination.Cursor, error) {
	if raw == "" {
		return nil, nil
	}
	cursor, err := pagination.ParseCursor(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return cursor, nil
}

func buildListResult(rows []models.ContentItem, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: toListItems(rows), Cursor: cursor}
}

var coverContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}
