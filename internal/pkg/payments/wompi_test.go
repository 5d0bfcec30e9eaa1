package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

const wompiBody = `{"event":"transaction.updated","data":{"transaction":{"id":"1234-1610641025-49201","amount_in_cents":11768100,"reference":"order_1700000000_ab12cd34","currency":"COP","payment_method_type":"NEQUI","status":"APPROVED"}},"environment":"test","signature":{"properties":["transaction.id"],"checksum":""},"timestamp":1700000100,"sent_at":"2023-11-14T22:15:00.000Z"}`

func wompiSign(timestamp, data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "." + data))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestDecodeWompiEnvelope_KeepsRawData(t *testing.T) {
	env, err := DecodeWompiEnvelope([]byte(wompiBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.TimestampString() != "1700000100" {
		t.Fatalf("timestamp = %q", env.TimestampString())
	}
	wantData := `{"transaction":{"id":"1234-1610641025-49201","amount_in_cents":11768100,"reference":"order_1700000000_ab12cd34","currency":"COP","payment_method_type":"NEQUI","status":"APPROVED"}}`
	if string(env.Data) != wantData {
		t.Fatalf("data = %s", env.Data)
	}
}

func TestVerifyWompiChecksum(t *testing.T) {
	env, err := DecodeWompiEnvelope([]byte(wompiBody))
	if err != nil {
		t.Fatal(err)
	}
	sum := wompiSign(env.TimestampString(), string(env.Data), "events-secret")

	if !VerifyWompiChecksum(env.TimestampString(), env.Data, sum, "events-secret") {
		t.Fatalf("expected checksum to validate")
	}
	if VerifyWompiChecksum("1700000101", env.Data, sum, "events-secret") {
		t.Fatalf("expected changed timestamp to fail")
	}
	if VerifyWompiChecksum(env.TimestampString(), []byte(`{"transaction":{}}`), sum, "events-secret") {
		t.Fatalf("expected changed data to fail")
	}
	if VerifyWompiChecksum(env.TimestampString(), env.Data, sum, "other") {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifyWompiChecksum(env.TimestampString(), env.Data, "", "events-secret") {
		t.Fatalf("expected missing checksum to fail")
	}
}

func TestParseWompiEvent_Approved(t *testing.T) {
	env, err := DecodeWompiEnvelope([]byte(wompiBody))
	if err != nil {
		t.Fatal(err)
	}
	ev, err := ParseWompiEvent(env, []byte(wompiBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Status != EventApproved || ev.TransactionID != "1234-1610641025-49201" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.EventID != "1234-1610641025-49201:APPROVED" {
		t.Fatalf("EventID = %q", ev.EventID)
	}
	if ev.AmountMinor != 11768100 || ev.Amount.String() != "117681" || ev.Currency != "COP" {
		t.Fatalf("unexpected amount: %d %s %s", ev.AmountMinor, ev.Amount, ev.Currency)
	}
	if ev.OrderRef != "order_1700000000_ab12cd34" || ev.PaymentMethod != "NEQUI" {
		t.Fatalf("unexpected ref/method: %q %q", ev.OrderRef, ev.PaymentMethod)
	}
}

func TestWompiStatus(t *testing.T) {
	tests := []struct {
		event  string
		status string
		want   EventStatus
	}{
		{event: "transaction.updated", status: "APPROVED", want: EventApproved},
		{event: "transaction.updated", status: "DECLINED", want: EventDeclined},
		{event: "transaction.updated", status: "VOIDED", want: EventVoided},
		{event: "transaction.updated", status: "ERROR", want: EventError},
		{event: "transaction.updated", status: "PENDING", want: EventPending},
		{event: "transaction.updated", status: "WHATEVER", want: EventIgnored},
		{event: "nequi_token.updated", status: "APPROVED", want: EventIgnored},
	}
	for _, tt := range tests {
		if got := wompiStatus(tt.event, tt.status); got != tt.want {
			t.Fatalf("wompiStatus(%q, %q) = %q, want %q", tt.event, tt.status, got, tt.want)
		}
	}
}

func TestDecodeWompiEnvelope_Malformed(t *testing.T) {
	for _, raw := range []string{`[]`, `{"event":"transaction.updated"}`, `{"data":{},"timestamp":""}`} {
		if _, err := DecodeWompiEnvelope([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("DecodeWompiEnvelope(%s) err = %v", raw, err)
		}
	}
}
