package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.ContentItem{}); err != nil {
		t.Fatalf("migrate content items: %v", err)
	}
	return db
}

func seedItem(t *testing.T, db *gorm.DB, creatorID uuid.UUID, status enums.ContentStatus, kind enums.ContentKind, createdAt time.Time) *models.ContentItem {
	t.Helper()
	item := &models.ContentItem{
		CreatorID: creatorID,
		Kind:      kind,
		Title:     "Seed",
		Status:    status,
		IsFree:    true,
		CreatedAt: createdAt,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed content item: %v", err)
	}
	return item
}

func TestRepositoryCreateAndFind(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := &models.ContentItem{
		CreatorID: uuid.New(),
		Kind:      enums.ContentKindPodcast,
		Title:     "Field Notes",
		Status:    enums.ContentStatusDraft,
		IsFree:    true,
	}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected generated id")
	}

	loaded, err := repo.FindByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if loaded.Title != "Field Notes" || loaded.Kind != enums.ContentKindPodcast {
		t.Fatalf("unexpected row %+v", loaded)
	}
}

func TestRepositoryFindMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	if _, err := repo.FindByID(context.Background(), 999); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestRepositoryListCatalogFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	creatorID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	approved := seedItem(t, db, creatorID, enums.ContentStatusApproved, enums.ContentKindAudiobook, base)
	seedItem(t, db, creatorID, enums.ContentStatusDraft, enums.ContentKindAudiobook, base.Add(time.Minute))
	seedItem(t, db, creatorID, enums.ContentStatusSubmitted, enums.ContentKindAudiobook, base.Add(2*time.Minute))

	archived := seedItem(t, db, creatorID, enums.ContentStatusRejected, enums.ContentKindAudiobook, base.Add(3*time.Minute))
	now := time.Now().UTC()
	archived.ArchivedAt = &now
	archived.Status = enums.ContentStatusApproved
	if err := db.Save(archived).Error; err != nil {
		t.Fatalf("archive item: %v", err)
	}

	rows, next, err := repo.ListCatalog(ctx, catalogQuery{Limit: 10})
	if err != nil {
		t.Fatalf("list catalog: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != approved.ID {
		t.Fatalf("expected only the live approved item, got %+v", rows)
	}
	if next != nil {
		t.Fatal("expected no cursor")
	}
}

func TestRepositoryListCatalogKindFilter(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	creatorID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	seedItem(t, db, creatorID, enums.ContentStatusApproved, enums.ContentKindAudiobook, base)
	podcast := seedItem(t, db, creatorID, enums.ContentStatusApproved, enums.ContentKindPodcast, base.Add(time.Minute))

	kind := enums.ContentKindPodcast
	rows, _, err := repo.ListCatalog(ctx, catalogQuery{Kind: &kind, Limit: 10})
	if err != nil {
		t.Fatalf("list catalog: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != podcast.ID {
		t.Fatalf("expected only the podcast, got %+v", rows)
	}
}

func TestRepositoryListCatalogPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	creatorID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	var ids []int64
	for i := 0; i < 3; i++ {
		item := seedItem(t, db, creatorID, enums.ContentStatusApproved, enums.ContentKindMusic, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, item.ID)
	}

	first, next, err := repo.ListCatalog(ctx, catalogQuery{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 || first[0].ID != ids[2] || first[1].ID != ids[1] {
		t.Fatalf("expected newest-first page, got %+v", first)
	}
	if next == nil {
		t.Fatal("expected cursor")
	}

	second, after, err := repo.ListCatalog(ctx, catalogQuery{Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 1 || second[0].ID != ids[0] {
		t.Fatalf("expected oldest item on second page, got %+v", second)
	}
	if after != nil {
		t.Fatal("expected no cursor on final page")
	}
}

func TestRepositoryListByCreator(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	creatorID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	draft := seedItem(t, db, creatorID, enums.ContentStatusDraft, enums.ContentKindMusic, base)
	seedItem(t, db, creatorID, enums.ContentStatusApproved, enums.ContentKindMusic, base.Add(time.Minute))
	seedItem(t, db, uuid.New(), enums.ContentStatusDraft, enums.ContentKindMusic, base.Add(2*time.Minute))

	all, _, err := repo.ListByCreator(ctx, creatorQuery{CreatorID: creatorID, Limit: 10})
	if err != nil {
		t.Fatalf("list by creator: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}

	status := enums.ContentStatusDraft
	drafts, _, err := repo.ListByCreator(ctx, creatorQuery{CreatorID: creatorID, Status: &status, Limit: 10})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != draft.ID {
		t.Fatalf("expected the draft only, got %+v", drafts)
	}
}

func TestRepositoryListReviewQueue(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	seedItem(t, db, uuid.New(), enums.ContentStatusDraft, enums.ContentKindMusic, base)
	submitted := seedItem(t, db, uuid.New(), enums.ContentStatusSubmitted, enums.ContentKindMusic, base.Add(time.Minute))

	rows, _, err := repo.ListReviewQueue(ctx, reviewQuery{Limit: 10})
	if err != nil {
		t.Fatalf("list review queue: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != submitted.ID {
		t.Fatalf("expected submitted item only, got %+v", rows)
	}
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := seedItem(t, db, uuid.New(), enums.ContentStatusDraft, enums.ContentKindMusic, time.Now().UTC())
	if err := repo.Delete(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, item.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected row gone, got %v", err)
	}
}
