package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soundleaf/soundleaf-backend/internal/catalog"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
)

func TestBrowseCatalog(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	makeRequest := func(query string, svc catalog.Service) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog"+query, nil)
		rec := httptest.NewRecorder()
		BrowseCatalog(svc, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("works without credentials", func(t *testing.T) {
		called := false
		svc := &testCatalogService{
			listCatalogFn: func(ctx context.Context, params catalog.ListCatalogParams) (*catalog.ListResult, error) {
				called = true
				return &catalog.ListResult{}, nil
			},
		}
		rec := makeRequest("", svc)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if !called {
			t.Fatal("expected service called")
		}
	})

	t.Run("passes kind filter", func(t *testing.T) {
		var got catalog.ListCatalogParams
		svc := &testCatalogService{
			listCatalogFn: func(ctx context.Context, params catalog.ListCatalogParams) (*catalog.ListResult, error) {
				got = params
				return &catalog.ListResult{}, nil
			},
		}
		rec := makeRequest("?kind=music&limit=12", svc)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if got.Kind == nil || *got.Kind != enums.ContentKindMusic {
			t.Fatalf("expected music filter, got %+v", got.Kind)
		}
		if got.Limit != 12 {
			t.Fatalf("unexpected limit %d", got.Limit)
		}
	})

	t.Run("invalid kind filter", func(t *testing.T) {
		rec := makeRequest("?kind=vinyl", &testCatalogService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})
}
