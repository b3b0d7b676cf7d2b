package controllers

import (
	"net/http"
	"strings"

	"github.com/soundleaf/soundleaf-backend/api/responses"
	"github.com/soundleaf/soundleaf-backend/api/validators"
	"github.com/soundleaf/soundleaf-backend/internal/catalog"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
)

// BrowseCatalog pages the public catalog of approved content. The route is
// reachable without credentials, so no actor is required here.
func BrowseCatalog(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := catalog.ListCatalogParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseContentKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid kind filter"))
				return
			}
			params.Kind = &kind
		}

		resp, err := svc.ListCatalog(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
