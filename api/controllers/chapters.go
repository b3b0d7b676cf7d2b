package controllers

import (
	"net/http"
	"strconv"

	"github.com/soundleaf/soundleaf-backend/api/responses"
	"github.com/soundleaf/soundleaf-backend/api/validators"
	"github.com/soundleaf/soundleaf-backend/internal/chapters"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
)

// UploadChapter accepts a multipart audio upload and appends it to the item.
// Form fields besides the file part: title, duration_seconds, is_preview.
func UploadChapter(svc chapters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chapter service unavailable"))
			return
		}

		contentID, err := pathID(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, header, err := validators.OpenMultipartFile(r, "file", validators.DefaultMultipartMemory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		upload := chapters.ChapterUpload{
			Reader:   file,
			Size:     header.Size,
			Filename: header.Filename,
			Title:    validators.FormValue(r, "title"),
		}

		if raw := validators.FormValue(r, "duration_seconds"); raw != "" {
			duration, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "duration_seconds must be numeric"))
				return
			}
			upload.DurationSeconds = duration
		}

		if raw := validators.FormValue(r, "is_preview"); raw != "" {
			preview, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "is_preview must be a boolean"))
				return
			}
			upload.IsPreview = preview
		}

		chapter, err := svc.UploadChapter(r.Context(), actor, contentID, upload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, chapter)
	}
}

// ListChapters returns the chapter sequence for a content item.
func ListChapters(svc chapters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chapter service unavailable"))
			return
		}

		contentID, err := pathID(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListChapters(r.Context(), actor, contentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows})
	}
}

// DeleteChapter removes one chapter and renumbers the remainder.
func DeleteChapter(svc chapters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chapter service unavailable"))
			return
		}

		chapterID, err := pathID(r, "chapterID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteChapter(r.Context(), actor, chapterID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type reorderRequest struct {
	Entries []reorderEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

type reorderEntryRequest struct {
	ChapterID int64  `json:"chapter_id" validate:"required,min=1"`
	Ordinal   string `json:"ordinal"`
}

func (r reorderRequest) toEntries() []chapters.ReorderEntry {
	entries := make([]chapters.ReorderEntry, 0, len(r.Entries))
	for _, entry := range r.Entries {
		entries = append(entries, chapters.ReorderEntry{
			ChapterID: entry.ChapterID,
			Ordinal:   entry.Ordinal,
		})
	}
	return entries
}

// ReorderChapters rewrites the chapter sequence from client-typed ordinals.
// The response always carries the sequence as stored, so clients can redraw
// even when the rewrite was rejected.
func ReorderChapters(svc chapters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chapter service unavailable"))
			return
		}

		contentID, err := pathID(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reorderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Reorder(r.Context(), actor, contentID, payload.toEntries())
		if err != nil {
			if len(rows) > 0 {
				responses.WriteErrorWithData(r.Context(), logg, w, err, map[string]any{"items": rows})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows})
	}
}

// StreamChapter redeems a chapter for a short-lived streaming URL.
func StreamChapter(svc chapters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chapter service unavailable"))
			return
		}

		chapterID, err := pathID(r, "chapterID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, err := svc.StreamChapter(r.Context(), actor, chapterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": url})
	}
}
