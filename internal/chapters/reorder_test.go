package chapters

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
)

func TestComputeOrderNumericOrdinals(t *testing.T) {
	ids := computeOrder([]ReorderEntry{
		{ChapterID: 10, Ordinal: "2"},
		{ChapterID: 20, Ordinal: "1"},
		{ChapterID: 30, Ordinal: "3"},
	})
	want := []int64{20, 10, 30}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestComputeOrderSentinelFallback(t *testing.T) {
	// Unparseable ordinals sink below every numbered entry; ties keep the
	// submitted order.
	ids := computeOrder([]ReorderEntry{
		{ChapterID: 1, Ordinal: "3"},
		{ChapterID: 2, Ordinal: ""},
		{ChapterID: 3, Ordinal: "1"},
		{ChapterID: 4, Ordinal: "abc"},
		{ChapterID: 5, Ordinal: "1"},
	})
	want := []int64{3, 5, 1, 2, 4}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestComputeOrderNonPositiveOrdinals(t *testing.T) {
	ids := computeOrder([]ReorderEntry{
		{ChapterID: 1, Ordinal: "0"},
		{ChapterID: 2, Ordinal: "-4"},
		{ChapterID: 3, Ordinal: "2"},
	})
	want := []int64{3, 1, 2}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestComputeOrderTrimsWhitespace(t *testing.T) {
	ids := computeOrder([]ReorderEntry{
		{ChapterID: 1, Ordinal: " 2 "},
		{ChapterID: 2, Ordinal: "1"},
	})
	if ids[0] != 2 || ids[1] != 1 {
		t.Fatalf("expected [2 1], got %v", ids)
	}
}

func TestReorderRewritesSequence(t *testing.T) {
	creatorID := uuid.New()
	item := draftItem(1, creatorID)
	item.ChapterCount = 3
	f := newServiceFixture(t, item)
	a := seedChapter(f.repo, 1, 1, false)
	b := seedChapter(f.repo, 1, 2, false)
	c := seedChapter(f.repo, 1, 3, false)

	rows, err := f.svc.Reorder(context.Background(), creatorActor(creatorID), 1, []ReorderEntry{
		{ChapterID: a.ID, Ordinal: "3"},
		{ChapterID: b.ID, Ordinal: "1"},
		{ChapterID: c.ID, Ordinal: "2"},
	})
	if err != nil {
		t.Fatalf("Reorder returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(rows))
	}
	wantIDs := []int64{b.ID, c.ID, a.ID}
	for i, row := range rows {
		if row.ID != wantIDs[i] {
			t.Fatalf("expected order %v, got position %d = chapter %d", wantIDs, i, row.ID)
		}
		if row.ChapterIndex != i+1 {
			t.Fatalf("expected dense index %d, got %d", i+1, row.ChapterIndex)
		}
	}
}

func TestReorderRejectsEmptyEntries(t *testing.T) {
	creatorID := uuid.New()
	f := newServiceFixture(t, draftItem(1, creatorID))

	_, err := f.svc.Reorder(context.Background(), creatorActor(creatorID), 1, nil)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestReorderRejectsDuplicateEntries(t *testing.T) {
	creatorID := uuid.New()
	f := newServiceFixture(t, draftItem(1, creatorID))
	a := seedChapter(f.repo, 1, 1, false)

	_, err := f.svc.Reorder(context.Background(), creatorActor(creatorID), 1, []ReorderEntry{
		{ChapterID: a.ID, Ordinal: "1"},
		{ChapterID: a.ID, Ordinal: "2"},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestReorderRejectsPartialCover(t *testing.T) {
	creatorID := uuid.New()
	f := newServiceFixture(t, draftItem(1, creatorID))
	a := seedChapter(f.repo, 1, 1, false)
	b := seedChapter(f.repo, 1, 2, false)

	rows, err := f.svc.Reorder(context.Background(), creatorActor(creatorID), 1, []ReorderEntry{
		{ChapterID: a.ID, Ordinal: "2"},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
	if len(rows) != 2 {
		t.Fatalf("expected authoritative rows alongside the error, got %d", len(rows))
	}
	if rows[0].ID != a.ID || rows[1].ID != b.ID {
		t.Fatal("expected original order preserved")
	}
}

func TestReorderRejectsUnknownChapter(t *testing.T) {
	creatorID := uuid.New()
	f := newServiceFixture(t, draftItem(1, creatorID))
	a := seedChapter(f.repo, 1, 1, false)

	_, err := f.svc.Reorder(context.Background(), creatorActor(creatorID), 1, []ReorderEntry{
		{ChapterID: a.ID, Ordinal: "1"},
		{ChapterID: 999, Ordinal: "2"},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestReorderReturnsAuthoritativeRowsOnFailure(t *testing.T) {
	creatorID := uuid.New()
	f := newServiceFixture(t, draftItem(1, creatorID))
	a := seedChapter(f.repo, 1, 1, false)
	b := seedChapter(f.repo, 1, 2, false)
	f.repo.orderErr = errors.New("rewrite failed")

	rows, err := f.svc.Reorder(context.Background(), creatorActor(creatorID), 1, []ReorderEntry{
		{ChapterID: a.ID, Ordinal: "2"},
		{ChapterID: b.ID, Ordinal: "1"},
	})
	assertCode(t, err, pkgerrors.CodeDependency)
	if len(rows) != 2 {
		t.Fatalf("expected authoritative rows alongside the error, got %d", len(rows))
	}
	if rows[0].ID != a.ID || rows[1].ID != b.ID {
		t.Fatal("expected database order, not the requested order")
	}
}

func TestReorderForeignItemMasked(t *testing.T) {
	f := newServiceFixture(t, draftItem(1, uuid.New()))

	_, err := f.svc.Reorder(context.Background(), creatorActor(uuid.New()), 1, []ReorderEntry{{ChapterID: 1, Ordinal: "1"}})
	assertCode(t, err, pkgerrors.CodeNotFound)
}
