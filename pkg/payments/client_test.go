package payments

import (
	"net/http"
	"testing"

	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
)

func TestNormalizeEnv(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "defaults to sandbox", raw: "", want: sandboxEnv},
		{name: "trims and lowers", raw: "  Production ", want: productionEnv},
		{name: "sandbox passes", raw: "sandbox", want: sandboxEnv},
		{name: "unknown rejected", raw: "staging", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeEnv(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizeEnv(%q) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeEnv(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("normalizeEnv(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusTeapot, pkgerrors.CodeValidation},
		{http.StatusBadGateway, pkgerrors.CodeDependency},
	}

	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.want {
			t.Errorf("domainCodeForStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestRedact(t *testing.T) {
	if got := redact("card_nonce", "cnon:123"); got != "[REDACTED]" {
		t.Errorf("redact(card_nonce) = %v, want [REDACTED]", got)
	}
	if got := redact("webhook_secret", "whsec"); got != "[REDACTED]" {
		t.Errorf("redact(webhook_secret) = %v, want [REDACTED]", got)
	}
	if got := redact("payment_id", "pay_1"); got != "pay_1" {
		t.Errorf("redact(payment_id) = %v, want passthrough", got)
	}
}

func TestPaymentCompleted(t *testing.T) {
	if (Payment{Status: "PENDING"}).Completed() {
		t.Error("pending payment reported completed")
	}
	if !(Payment{Status: StatusCompleted}).Completed() {
		t.Error("completed payment not reported completed")
	}
}
