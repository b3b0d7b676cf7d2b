package paymentwebhook

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/payments"
)

// Event types delivered for payment state changes. Everything else is
// acknowledged and dropped.
const (
	EventPaymentCreated = "payment.created"
	EventPaymentUpdated = "payment.updated"
)

type entitlementGranter interface {
	GrantPurchase(ctx context.Context, userID uuid.UUID, contentItemID int64, paymentReference string) (*models.Entitlement, error)
}

// ServiceParams wires the webhook service dependencies.
type ServiceParams struct {
	Granter  entitlementGranter
	Verifier payments.Verifier
	Logger   *logger.Logger
}

// Service turns verified payment events into purchase entitlements.
type Service struct {
	granter  entitlementGranter
	verifier payments.Verifier
	logger   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Granter == nil {
		return nil, fmt.Errorf("entitlement granter required")
	}
	if params.Verifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		granter:  params.Granter,
		verifier: params.Verifier,
		logger:   params.Logger,
	}, nil
}

// PaymentEvent is the provider's webhook envelope.
type PaymentEvent struct {
	EventID string           `json:"event_id"`
	Type    string           `json:"type"`
	Data    PaymentEventData `json:"data"`
}

type PaymentEventData struct {
	Type   string             `json:"type"`
	ID     string             `json:"id"`
	Object PaymentEventObject `json:"object"`
}

type PaymentEventObject struct {
	Payment *PaymentPayload `json:"payment"`
}

// PaymentPayload is the delivered payment snapshot. Only the id is used; the
// authoritative state comes from re-reading the provider.
type PaymentPayload struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
}

// HandleEvent processes one payment event. Deliveries for payments that have
// not settled are acknowledged without granting; the provider sends a fresh
// event when the status changes.
func (s *Service) HandleEvent(ctx context.Context, event *PaymentEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment event required")
	}

	eventType := strings.TrimSpace(event.Type)
	switch eventType {
	case EventPaymentCreated, EventPaymentUpdated:
	default:
		s.logger.Info(ctx, fmt.Sprintf("ignoring webhook event type %q", eventType))
		return nil
	}

	paymentID := ""
	if event.Data.Object.Payment != nil {
		paymentID = strings.TrimSpace(event.Data.Object.Payment.ID)
	}
	if paymentID == "" {
		paymentID = strings.TrimSpace(event.Data.ID)
	}
	if paymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id missing from event")
	}

	// The delivered payload is advisory. The grant rides on the provider's
	// answer, never on what arrived over the wire.
	payment, err := s.verifier.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if !payment.Completed() {
		logCtx := s.logger.WithFields(ctx, map[string]any{
			"payment_id": payment.ID,
			"status":     payment.Status,
		})
		s.logger.Info(logCtx, "payment not settled; no grant")
		return nil
	}

	userID, contentItemID, err := parseReference(payment.ReferenceID)
	if err != nil {
		return err
	}

	if _, err := s.granter.GrantPurchase(ctx, userID, contentItemID, payment.ID); err != nil {
		return err
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"payment_id":      payment.ID,
		"user_id":         userID.String(),
		"content_item_id": contentItemID,
	})
	s.logger.Info(logCtx, "purchase entitlement granted")
	return nil
}

// parseReference splits the checkout reference "userID:contentItemID" the
// client attaches when creating the payment.
func parseReference(reference string) (uuid.UUID, int64, error) {
	parts := strings.Split(strings.TrimSpace(reference), ":")
	if len(parts) != 2 {
		return uuid.Nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "malformed payment reference")
	}
	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed payment reference")
	}
	contentItemID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || contentItemID <= 0 {
		return uuid.Nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "malformed payment reference")
	}
	return userID, contentItemID, nil
}
