package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func boldSign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base64.StdEncoding.EncodeToString(body)))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyBoldSignature_KnownVector(t *testing.T) {
	body := []byte(`{"type":"SALE_APPROVED"}`)
	const sig = "6eccdfd0663c92bd1acd24bb30d731a678b7aa3d17cb7373cdbb20572b9d172b"

	if !VerifyBoldSignature(body, sig, "bold-secret") {
		t.Fatalf("expected known vector to validate")
	}
	if !VerifyBoldSignature(body, "  "+string(bytes.ToUpper([]byte(sig)))+" ", "bold-secret") {
		t.Fatalf("expected upper-case header value to validate")
	}
}

func TestVerifyBoldSignature_RawBodyRequired(t *testing.T) {
	secret := "top-secret"
	raw := []byte(`{ "type": "SALE_APPROVED",  "data": {"payment_id": "tx_1", "amount": {"total": 59900}} }`)
	sig := boldSign(raw, secret)

	if !VerifyBoldSignature(raw, sig, secret) {
		t.Fatalf("expected signature over raw body to validate")
	}

	altered := bytes.Replace(raw, []byte("59900"), []byte("59901"), 1)
	if VerifyBoldSignature(altered, sig, secret) {
		t.Fatalf("expected altered body to fail")
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatal(err)
	}
	reserialized, _ := json.Marshal(parsed)
	if VerifyBoldSignature(reserialized, sig, secret) {
		t.Fatalf("expected parsed-then-reserialized body to fail")
	}
	if VerifyBoldSignature(reserialized, boldSign(raw, secret), secret) {
		t.Fatalf("signature over raw bytes must not match re-serialized bytes")
	}
}

func TestVerifyBoldSignature_FailsClosed(t *testing.T) {
	body := []byte(`{"type":"SALE_APPROVED"}`)
	sig := boldSign(body, "s")

	if VerifyBoldSignature(body, "", "s") {
		t.Fatalf("missing header must fail")
	}
	if VerifyBoldSignature(body, sig, "") {
		t.Fatalf("missing secret must fail")
	}
	if VerifyBoldSignature(body, sig[:10], "s") {
		t.Fatalf("short signature must fail")
	}
	if VerifyBoldSignature(body, sig+"00", "s") {
		t.Fatalf("long signature must fail")
	}
}

func TestParseBoldEvent_Approved(t *testing.T) {
	raw := []byte(`{
		"id": "evt_1",
		"notification_id": "ntf_1",
		"type": "SALE_APPROVED",
		"subject": "tx_1",
		"data": {
			"payment_id": "tx_1",
			"amount": {"total": 117681, "currency": "COP"},
			"payment_method": "CARD",
			"metadata": {"reference": "order_1700000000_ab12cd34"}
		}
	}`)

	ev, err := ParseBoldEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Status != EventApproved || ev.TransactionID != "tx_1" || ev.EventID != "ntf_1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.OrderRef != "order_1700000000_ab12cd34" {
		t.Fatalf("OrderRef = %q", ev.OrderRef)
	}
	if !ev.Amount.Equal(decimal.NewFromInt(117681)) || ev.AmountMinor != 11768100 || ev.Currency != "COP" {
		t.Fatalf("unexpected amount: %s / %d %s", ev.Amount, ev.AmountMinor, ev.Currency)
	}
	if ev.PaymentMethod != "CARD" {
		t.Fatalf("PaymentMethod = %q", ev.PaymentMethod)
	}
}

func TestParseBoldEvent_ReferenceFallbackAndStatuses(t *testing.T) {
	raw := []byte(`{"type":"SALE_REJECTED","data":{"payment_id":"tx_2","reference":"order_2"}}`)
	ev, err := ParseBoldEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Status != EventDeclined || ev.OrderRef != "order_2" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	ev, err = ParseBoldEvent([]byte(`{"type":"SOMETHING_NEW","data":{}}`))
	if err != nil || ev.Status != EventIgnored {
		t.Fatalf("expected unknown type to be ignored, got %+v, %v", ev, err)
	}
}

func TestParseBoldEvent_Malformed(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"data":{}}`,
		`{"type":"SALE_APPROVED","data":{"metadata":{"reference":"r"}}}`,
		`{"type":"SALE_APPROVED","data":{"payment_id":"tx","metadata":{"reference":"r"}}}`,
	} {
		if _, err := ParseBoldEvent([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("ParseBoldEvent(%s) err = %v, want ErrMalformedPayload", raw, err)
		}
	}
}
