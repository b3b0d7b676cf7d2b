package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/soundleaf/soundleaf-backend/api/responses"
	"github.com/soundleaf/soundleaf-backend/api/validators"
	"github.com/soundleaf/soundleaf-backend/internal/catalog"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
)

type contentCreateRequest struct {
	Kind        string          `json:"kind" validate:"required"`
	Title       string          `json:"title" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	IsFree      bool            `json:"is_free"`
	Price       decimal.Decimal `json:"price"`
}

func (r contentCreateRequest) toInput() (catalog.CreateDraftInput, error) {
	kind, err := enums.ParseContentKind(strings.TrimSpace(r.Kind))
	if err != nil {
		return catalog.CreateDraftInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid content kind")
	}
	return catalog.CreateDraftInput{
		Kind:        kind,
		Title:       validators.SanitizeString(r.Title, maxTitleLen),
		Description: validators.SanitizeString(r.Description, maxDescriptionLen),
		IsFree:      r.IsFree,
		Price:       r.Price,
	}, nil
}

type contentUpdateRequest struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Kind        *string          `json:"kind"`
	IsFree      *bool            `json:"is_free"`
	Price       *decimal.Decimal `json:"price"`
}

func (r contentUpdateRequest) toInput() (catalog.UpdateItemInput, error) {
	input := catalog.UpdateItemInput{
		IsFree: r.IsFree,
		Price:  r.Price,
	}
	if r.Title != nil {
		title := validators.SanitizeString(*r.Title, maxTitleLen)
		input.Title = &title
	}
	if r.Description != nil {
		description := validators.SanitizeString(*r.Description, maxDescriptionLen)
		input.Description = &description
	}
	if r.Kind != nil {
		kind, err := enums.ParseContentKind(strings.TrimSpace(*r.Kind))
		if err != nil {
			return catalog.UpdateItemInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid content kind")
		}
		input.Kind = &kind
	}
	return input, nil
}

// CreateContent opens a new draft owned by the calling creator.
func CreateContent(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload contentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateDraft(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// GetContent returns one content item, subject to visibility rules.
func GetContent(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		id, err := pathID(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// UpdateContent patches draft metadata.
func UpdateContent(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		id, err := pathID(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload contentUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// SubmitContent moves a draft into the review queue.
func SubmitContent(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		id, err := pathID(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Submit(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// DeleteContent removes an item along with its chapters and stored blobs.
func DeleteContent(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		id, err := pathID(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// UploadCover accepts a multipart cover image for a draft.
func UploadCover(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		id, err := pathID(r, "contentID")
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

		item, err := svc.UploadCover(r.Context(), actor, id, catalog.CoverUpload{
			Reader:   file,
			Size:     header.Size,
			Filename: header.Filename,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ListMyContent pages the calling creator's own items across all statuses.
func ListMyContent(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := catalog.ListMineParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseContentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		resp, err := svc.ListMine(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
