package chapters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/soundleaf/soundleaf-backend/internal/authz"
	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
)

// fallbackOrdinalKey sorts chapters with a blank or unparseable ordinal after
// every explicitly numbered one. Ties keep their submitted order.
const fallbackOrdinalKey = 9999

// ReorderEntry pairs a chapter with the ordinal string the client typed for
// it. Ordinals are free-form text; anything that is not a positive integer
// falls back to the sentinel key.
type ReorderEntry struct {
	ChapterID int64
	Ordinal   string
}

// Reorder rewrites the chapter sequence of a content item from client-typed
// ordinals. The entries must cover the item's chapters exactly. The returned
// slice always reflects what the database holds after the call, including
// alongside a non-nil error, so callers can render authoritative order after
// a failed rewrite.
func (s *service) Reorder(ctx context.Context, actor authz.Actor, contentItemID int64, entries []ReorderEntry) ([]models.Chapter, error) {
	item, err := s.loadItem(ctx, contentItemID)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureWritable(actor, item); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder entries are required")
	}
	seen := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.ChapterID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("chapter %d appears more than once", entry.ChapterID))
		}
		seen[entry.ChapterID] = struct{}{}
	}

	orderedIDs := computeOrder(entries)

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockContentItem(ctx, contentItemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock content item")
		}
		existing, err := repo.ListByContentItem(ctx, contentItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chapters")
		}
		if err := ensureExactCover(existing, seen); err != nil {
			return err
		}
		if err := repo.ApplyOrdering(ctx, contentItemID, orderedIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rewrite chapter order")
		}
		return nil
	})

	chapters, loadErr := s.repo.ListByContentItem(ctx, contentItemID)
	if txErr != nil {
		if loadErr != nil {
			return nil, txErr
		}
		return chapters, txErr
	}
	if loadErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, loadErr, "reload chapters")
	}
	return chapters, nil
}

// ensureExactCover rejects reorders that omit an existing chapter or name an
// unknown one.
func ensureExactCover(existing []models.Chapter, requested map[int64]struct{}) error {
	if len(existing) != len(requested) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reorder must cover all %d chapters", len(existing)))
	}
	for _, chapter := range existing {
		if _, ok := requested[chapter.ID]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("chapter %d is missing from the reorder", chapter.ID))
		}
	}
	return nil
}

// computeOrder sorts entries by their parsed ordinal. Blank or non-numeric
// ordinals take the sentinel key, so they land after every numbered entry;
// the submitted position is an explicit secondary sort key, so equal ordinals
// keep client order without leaning on sort stability.
func computeOrder(entries []ReorderEntry) []int64 {
	type slot struct {
		id  int64
		key int
		pos int
	}
	slots := make([]slot, len(entries))
	for i, entry := range entries {
		key, err := strconv.Atoi(strings.TrimSpace(entry.Ordinal))
		if err != nil || key <= 0 {
			key = fallbackOrdinalKey
		}
		slots[i] = slot{id: entry.ChapterID, key: key, pos: i}
	}
	sort.Slice(slots, func(a, b int) bool {
		if slots[a].key != slots[b].key {
			return slots[a].key < slots[b].key
		}
		return slots[a].pos < slots[b].pos
	})

	ids := make([]int64, len(slots))
	for i, s := range slots {
		ids[i] = s.id
	}
	return ids
}
