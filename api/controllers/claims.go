package controllers

import (
	"net/http"

	"github.com/soundleaf/soundleaf-backend/api/responses"
	"github.com/soundleaf/soundleaf-backend/internal/entitlements"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
)

// ClaimFreeContent grants the caller a permanent entitlement to a free,
// published item. Claiming twice returns the original grant.
func ClaimFreeContent(svc entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
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

		grant, err := svc.ClaimFree(r.Context(), actor, contentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, grant)
	}
}
