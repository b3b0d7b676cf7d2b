package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/payments"
)

type grantCall struct {
	userID        uuid.UUID
	contentItemID int64
	reference     string
}

type stubGranter struct {
	grants []grantCall
	err    error
}

func (s *stubGranter) GrantPurchase(_ context.Context, userID uuid.UUID, contentItemID int64, reference string) (*models.Entitlement, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.grants = append(s.grants, grantCall{userID: userID, contentItemID: contentItemID, reference: reference})
	return &models.Entitlement{UserID: userID, ContentItemID: contentItemID}, nil
}

type stubVerifier struct {
	payment *payments.Payment
	err     error
	calls   []string
}

func (s *stubVerifier) GetPayment(_ context.Context, paymentID string) (*payments.Payment, error) {
	s.calls = append(s.calls, paymentID)
	if s.err != nil {
		return nil, s.err
	}
	return s.payment, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, granter *stubGranter, verifier *stubVerifier) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Granter:  granter,
		Verifier: verifier,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func completedPayment(userID uuid.UUID, contentItemID string) *payments.Payment {
	return &payments.Payment{
		ID:          "pay_123",
		Status:      payments.StatusCompleted,
		ReferenceID: userID.String() + ":" + contentItemID,
	}
}

func paymentEvent(eventType, paymentID string) *PaymentEvent {
	return &PaymentEvent{
		EventID: "evt_1",
		Type:    eventType,
		Data: PaymentEventData{
			Type:   "payment",
			ID:     paymentID,
			Object: PaymentEventObject{Payment: &PaymentPayload{ID: paymentID}},
		},
	}
}

func TestService_HandleEventGrantsCompletedPayment(t *testing.T) {
	userID := uuid.New()
	granter := &stubGranter{}
	verifier := &stubVerifier{payment: completedPayment(userID, "42")}
	svc := newTestService(t, granter, verifier)

	if err := svc.HandleEvent(context.Background(), paymentEvent(EventPaymentUpdated, "pay_123")); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(verifier.calls) != 1 || verifier.calls[0] != "pay_123" {
		t.Fatalf("expected provider re-read for pay_123, got %v", verifier.calls)
	}
	if len(granter.grants) != 1 {
		t.Fatalf("expected one grant, got %d", len(granter.grants))
	}
	grant := granter.grants[0]
	if grant.userID != userID || grant.contentItemID != 42 || grant.reference != "pay_123" {
		t.Fatalf("unexpected grant %+v", grant)
	}
}

func TestService_HandleEventIgnoresOtherTypes(t *testing.T) {
	granter := &stubGranter{}
	verifier := &stubVerifier{}
	svc := newTestService(t, granter, verifier)

	if err := svc.HandleEvent(context.Background(), paymentEvent("refund.created", "ref_1")); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(verifier.calls) != 0 {
		t.Fatalf("expected no provider reads, got %v", verifier.calls)
	}
	if len(granter.grants) != 0 {
		t.Fatalf("expected no grants, got %d", len(granter.grants))
	}
}

func TestService_HandleEventSkipsUnsettledPayment(t *testing.T) {
	granter := &stubGranter{}
	verifier := &stubVerifier{payment: &payments.Payment{
		ID:          "pay_9",
		Status:      "PENDING",
		ReferenceID: uuid.NewString() + ":7",
	}}
	svc := newTestService(t, granter, verifier)

	if err := svc.HandleEvent(context.Background(), paymentEvent(EventPaymentUpdated, "pay_9")); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(granter.grants) != 0 {
		t.Fatalf("expected no grants for pending payment, got %d", len(granter.grants))
	}
}

func TestService_HandleEventTrustsProviderNotPayload(t *testing.T) {
	userID := uuid.New()
	granter := &stubGranter{}
	verifier := &stubVerifier{payment: completedPayment(userID, "12")}
	svc := newTestService(t, granter, verifier)

	// The delivered payload claims a different reference; the verified copy
	// must win.
	event := paymentEvent(EventPaymentUpdated, "pay_123")
	event.Data.Object.Payment.Status = "COMPLETED"
	event.Data.Object.Payment.ReferenceID = uuid.NewString() + ":999"

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(granter.grants) != 1 {
		t.Fatalf("expected one grant, got %d", len(granter.grants))
	}
	if granter.grants[0].contentItemID != 12 {
		t.Fatalf("grant used payload reference, got item %d", granter.grants[0].contentItemID)
	}
}

func TestService_HandleEventFallsBackToDataID(t *testing.T) {
	userID := uuid.New()
	granter := &stubGranter{}
	verifier := &stubVerifier{payment: completedPayment(userID, "5")}
	svc := newTestService(t, granter, verifier)

	event := paymentEvent(EventPaymentCreated, "pay_xyz")
	event.Data.Object.Payment = nil

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(verifier.calls) != 1 || verifier.calls[0] != "pay_xyz" {
		t.Fatalf("expected provider read for pay_xyz, got %v", verifier.calls)
	}
}

func TestService_HandleEventMissingPaymentID(t *testing.T) {
	svc := newTestService(t, &stubGranter{}, &stubVerifier{})

	event := &PaymentEvent{EventID: "evt_2", Type: EventPaymentUpdated}
	err := svc.HandleEvent(context.Background(), event)
	if err == nil {
		t.Fatal("expected error for missing payment id")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_HandleEventVerifierFailure(t *testing.T) {
	granter := &stubGranter{}
	verifier := &stubVerifier{err: pkgerrors.New(pkgerrors.CodeDependency, "provider unreachable")}
	svc := newTestService(t, granter, verifier)

	err := svc.HandleEvent(context.Background(), paymentEvent(EventPaymentUpdated, "pay_1"))
	if err == nil {
		t.Fatal("expected verifier error to propagate")
	}
	if len(granter.grants) != 0 {
		t.Fatalf("expected no grants, got %d", len(granter.grants))
	}
}

func TestService_HandleEventGranterFailure(t *testing.T) {
	userID := uuid.New()
	granter := &stubGranter{err: errors.New("db down")}
	verifier := &stubVerifier{payment: completedPayment(userID, "3")}
	svc := newTestService(t, granter, verifier)

	if err := svc.HandleEvent(context.Background(), paymentEvent(EventPaymentUpdated, "pay_2")); err == nil {
		t.Fatal("expected granter error to propagate")
	}
}

func TestParseReference(t *testing.T) {
	userID := uuid.New()

	gotUser, gotItem, err := parseReference(userID.String() + ":42")
	if err != nil {
		t.Fatalf("parse reference: %v", err)
	}
	if gotUser != userID || gotItem != 42 {
		t.Fatalf("got user %s item %d", gotUser, gotItem)
	}

	bad := []string{"", "no-colon", "not-a-uuid:42", userID.String() + ":abc", userID.String() + ":0", userID.String() + ":1:2"}
	for _, reference := range bad {
		if _, _, err := parseReference(reference); err == nil {
			t.Fatalf("expected error for %q", reference)
		}
	}
}
