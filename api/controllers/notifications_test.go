package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/internal/notifications"
	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, userID uuid.UUID, notificationID int64) error
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, userID uuid.UUID, notificationID int64) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, userID, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

func TestListNotifications(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	userID := uuid.New()

	makeRequest := func(query string, svc *testNotificationsService) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications"+query, nil)
		req = req.WithContext(actorContext(req.Context(), userID, enums.UserRoleListener))
		rec := httptest.NewRecorder()
		ListNotifications(svc, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("scopes to caller", func(t *testing.T) {
		var got notifications.ListParams
		svc := &testNotificationsService{
			listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
				got = params
				return &notifications.ListResult{Items: []models.Notification{{ID: 1, UserID: params.UserID}}}, nil
			},
		}
		rec := makeRequest("?limit=10&unreadOnly=true", svc)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if got.UserID != userID {
			t.Fatalf("expected caller scope, got %s", got.UserID)
		}
		if got.Limit != 10 || !got.UnreadOnly {
			t.Fatalf("unexpected params %+v", got)
		}
	})

	t.Run("invalid unreadOnly", func(t *testing.T) {
		rec := makeRequest("?unreadOnly=sometimes", &testNotificationsService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		rec := httptest.NewRecorder()
		ListNotifications(&testNotificationsService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 got %d", rec.Code)
		}
	})
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	userID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, uid uuid.UUID, notificationID int64) error {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if notificationID != 42 {
				t.Fatalf("unexpected notification %d", notificationID)
			}
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/42/read", nil)
	req = req.WithContext(actorContext(req.Context(), userID, enums.UserRoleListener))
	req = addRouteParam(req, "notificationID", "42")
	rec := httptest.NewRecorder()
	MarkNotificationRead(svc, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != "read" {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/abc/read", nil)
	req = req.WithContext(actorContext(req.Context(), uuid.New(), enums.UserRoleListener))
	req = addRouteParam(req, "notificationID", "abc")
	rec := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMarkAllNotificationsReadReportsCount(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, userID uuid.UUID) (int64, error) {
			return 7, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	req = req.WithContext(actorContext(req.Context(), uuid.New(), enums.UserRoleListener))
	rec := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 7 {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}
