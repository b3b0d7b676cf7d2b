package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/api/middleware"
	"github.com/soundleaf/soundleaf-backend/internal/authz"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
)

// requireActor rebuilds the authenticated actor seeded by the auth middleware.
func requireActor(r *http.Request) (authz.Actor, error) {
	actor := middleware.ActorFromContext(r.Context())
	if actor.UserID == uuid.Nil {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}

// pathID parses a positive numeric URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "missing url parameter").WithDetails(map[string]any{"field": name})
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "url parameter must be a positive integer").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
