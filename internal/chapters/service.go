package chapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soundleaf/soundleaf-backend/internal/authz"
	"github.com/soundleaf/soundleaf-backend/pkg/config"
	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/metrics"
	"github.com/soundleaf/soundleaf-backend/pkg/storage"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type objectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type entitlementsChecker interface {
	HasEntitlement(ctx context.Context, userID uuid.UUID, contentItemID int64) (bool, error)
}

// Service exposes chapter upload, removal, listing, reordering, and playback
// URL issuance.
type Service interface {
	UploadChapter(ctx context.Context, actor authz.Actor, contentItemID int64, upload ChapterUpload) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, actor authz.Actor, chapterID int64) error
	ListChapters(ctx context.Context, actor authz.Actor, contentItemID int64) ([]models.Chapter, error)
	Reorder(ctx context.Context, actor authz.Actor, contentItemID int64, entries []ReorderEntry) ([]models.Chapter, error)
	StreamChapter(ctx context.Context, actor authz.Actor, chapterID int64) (string, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	store        objectStore
	entitlements entitlementsChecker
	uploads      *metrics.UploadMetrics
	media        config.MediaConfig
	streamExpiry time.Duration
	logg         *logger.Logger
}

// ChapterUpload carries one audio file upload and its metadata.
type ChapterUpload struct {
	Reader          io.Reader
	Size            int64
	Filename        string
	Title           string
	DurationSeconds int
	IsPreview       bool
}

// NewService builds the chapter service backed by the provided collaborators.
func NewService(repo Repository, tx txRunner, store objectStore, entitlements entitlementsChecker, uploads *metrics.UploadMetrics, media config.MediaConfig, storageCfg config.StorageConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chapter repository required")
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
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         repo,
		tx:           tx,
		store:        store,
		entitlements: entitlements,
		uploads:      uploads,
		media:        media,
		streamExpiry: storageCfg.StreamExpiry,
		logg:         logg,
	}, nil
}

// UploadChapter stores the audio blob first and only then inserts the row, so
// a row never references a missing blob. When the insert fails the fresh blob
// is deleted on a best-effort basis; the sweeper reaps anything missed.
func (s *service) UploadChapter(ctx context.Context, actor authz.Actor, contentItemID int64, upload ChapterUpload) (*models.Chapter, error) {
	item, err := s.loadItem(ctx, contentItemID)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureWritable(actor, item); err != nil {
		return nil, err
	}

	if upload.Reader == nil || upload.Size <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chapter file is required")
	}
	title := strings.TrimSpace(upload.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chapter title is required")
	}
	format, err := enums.ParseAudioFormat(strings.ToLower(filepath.Ext(upload.Filename)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported audio format")
	}
	if upload.Size > s.media.MaxChapterUploadBytes() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("chapter exceeds the %dMB limit", s.media.MaxChapterUploadMB))
	}
	if upload.DurationSeconds <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chapter duration is required")
	}
	if upload.DurationSeconds > s.media.MaxDurationSeconds {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("chapter duration exceeds the %d second limit", s.media.MaxDurationSeconds))
	}
	if item.ChapterCount >= s.media.MaxChaptersPerItem {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("chapter limit of %d reached", s.media.MaxChaptersPerItem))
	}

	start := time.Now()
	key := storage.ChapterKey(contentItemID, uuid.New(), format)
	if err := s.store.Put(ctx, key, upload.Reader, upload.Size, format.ContentType()); err != nil {
		s.uploads.IncFailure("chapter")
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "store chapter audio")
	}

	chapter := &models.Chapter{
		ContentItemID:   contentItemID,
		Title:           title,
		StoragePath:     key,
		Format:          format,
		DurationSeconds: upload.DurationSeconds,
		SizeBytes:       upload.Size,
		IsPreview:       upload.IsPreview,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockContentItem(ctx, contentItemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock content item")
		}
		count, err := repo.CountByContentItem(ctx, contentItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count chapters")
		}
		if count >= int64(s.media.MaxChaptersPerItem) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("chapter limit of %d reached", s.media.MaxChaptersPerItem))
		}
		chapter.ChapterIndex = int(count) + 1
		if err := repo.Create(ctx, chapter); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chapter")
		}
		if err := repo.RecomputeAggregates(ctx, contentItemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh content aggregates")
		}
		return nil
	})
	if err != nil {
		s.uploads.IncFailure("chapter")
		s.compensateChapter(ctx, contentItemID, key)
		return nil, err
	}

	s.uploads.IncSuccess("chapter")
	s.uploads.ObserveDuration("chapter", time.Since(start))
	return chapter, nil
}

// DeleteChapter removes one chapter, closes the index gap, and refreshes the
// parent aggregates in the same transaction. The blob is deleted after commit
// on a best-effort basis.
func (s *service) DeleteChapter(ctx context.Context, actor authz.Actor, chapterID int64) error {
	chapter, err := s.loadChapter(ctx, chapterID)
	if err != nil {
		return err
	}
	item, err := s.loadItem(ctx, chapter.ContentItemID)
	if err != nil {
		return err
	}
	if err := authz.EnsureWritable(actor, item); err != nil {
		return err
	}
	locked := item.Status == enums.ContentStatusSubmitted || item.Status == enums.ContentStatusApproved
	if locked && item.ChapterCount <= 1 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot remove the last chapter while content is in review or published")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockContentItem(ctx, chapter.ContentItemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock content item")
		}
		if err := repo.Delete(ctx, chapterID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete chapter")
		}
		remaining, err := repo.ListByContentItem(ctx, chapter.ContentItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list remaining chapters")
		}
		ids := make([]int64, len(remaining))
		for i, row := range remaining {
			ids[i] = row.ID
		}
		if err := repo.ApplyOrdering(ctx, chapter.ContentItemID, ids); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close chapter index gap")
		}
		if err := repo.RecomputeAggregates(ctx, chapter.ContentItemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh content aggregates")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, chapter.StoragePath); err != nil {
		s.logg.Error(s.logg.WithChapterID(ctx, chapterID), "failed to delete chapter blob", err)
	}
	return nil
}

func (s *service) ListChapters(ctx context.Context, actor authz.Actor, contentItemID int64) ([]models.Chapter, error) {
	item, err := s.loadItem(ctx, contentItemID)
	if err != nil {
		return nil, err
	}
	hasEntitlement, err := s.checkEntitlement(ctx, actor, contentItemID)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureReadable(authz.ReadInput{Actor: actor, Item: item, HasEntitlement: hasEntitlement}); err != nil {
		return nil, err
	}

	chapters, err := s.repo.ListByContentItem(ctx, contentItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chapters")
	}
	return chapters, nil
}

// StreamChapter issues a short-lived playback URL for the chapter blob.
func (s *service) StreamChapter(ctx context.Context, actor authz.Actor, chapterID int64) (string, error) {
	chapter, err := s.loadChapter(ctx, chapterID)
	if err != nil {
		return "", err
	}
	item, err := s.loadItem(ctx, chapter.ContentItemID)
	if err != nil {
		return "", err
	}
	hasEntitlement, err := s.checkEntitlement(ctx, actor, chapter.ContentItemID)
	if err != nil {
		return "", err
	}
	if err := authz.EnsureStreamable(authz.StreamInput{Actor: actor, Item: item, Chapter: chapter, HasEntitlement: hasEntitlement}); err != nil {
		return "", err
	}

	url, err := s.store.PresignGet(ctx, chapter.StoragePath, s.streamExpiry)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeStorage, err, "presign chapter url")
	}
	return url, nil
}

func (s *service) compensateChapter(ctx context.Context, contentItemID int64, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.uploads.IncCompensationFailure("chapter")
		s.logg.Error(s.logg.WithContentItemID(ctx, contentItemID), "chapter compensation delete failed", err)
	}
}

func (s *service) checkEntitlement(ctx context.Context, actor authz.Actor, contentItemID int64) (bool, error) {
	if actor.UserID == uuid.Nil {
		return false, nil
	}
	has, err := s.entitlements.HasEntitlement(ctx, actor.UserID, contentItemID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check entitlement")
	}
	return has, nil
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

func (s *service) loadChapter(ctx context.Context, id int64) (*models.Chapter, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chapter id is required")
	}
	chapter, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chapter not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chapter")
	}
	return chapter, nil
}
