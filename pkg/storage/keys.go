package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/pkg/enums"
)

// Prefixes partition the bucket so the sweeper can scan each class of blob
// independently.
const (
	ChapterPrefix = "chapters/"
	CoverPrefix   = "covers/"
)

// ChapterKey builds the storage key for a chapter blob. Keys are minted from
// a fresh uuid per upload attempt, so a retried upload never collides with
// the blob a previous attempt may have left behind.
func ChapterKey(contentItemID int64, blobID uuid.UUID, format enums.AudioFormat) string {
	return fmt.Sprintf("%s%d/%s.%s", ChapterPrefix, contentItemID, blobID, format)
}

// CoverKey builds the storage key for a cover image blob.
func CoverKey(contentItemID int64, blobID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%d/%s%s", CoverPrefix, contentItemID, blobID, sanitizeExt(ext))
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	var b strings.Builder
	b.WriteByte('.')
	for _, r := range ext[1:] {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 1 {
		return ""
	}
	return b.String()
}
