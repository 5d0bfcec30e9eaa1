package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payPalStub struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	verifyCalls atomic.Int32
	status      string
	lastRequest payPalVerifyRequest
}

func newPayPalStub(t *testing.T, status string) *payPalStub {
	t.Helper()
	stub := &payPalStub{status: status}
	mux := http.NewServeMux()
	mux.HandleFunc(payPalTokenPath, func(w http.ResponseWriter, r *http.Request) {
		stub.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc(payPalVerifyPath, func(w http.ResponseWriter, r *http.Request) {
		stub.verifyCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&stub.lastRequest)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"verification_status":"`+stub.status+`"}`)
	})
	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *payPalStub) client() *PayPalClient {
	return NewPayPalClient(PayPalConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		WebhookID:    "WH-1",
		BaseURL:      s.server.URL,
	})
}

func payPalHeaders() map[string][]string {
	// Mixed casing as delivered by different proxies.
	return map[string][]string{
		"Paypal-Auth-Algo":         {"SHA256withRSA"},
		"paypal-cert-url":          {"https://api.paypal.com/cert.pem"},
		"PAYPAL-TRANSMISSION-ID":   {"trans-1"},
		"Paypal-Transmission-Sig":  {"sig=="},
		"paypal-transmission-time": {"2023-11-14T22:15:00Z"},
	}
}

func TestPayPalVerifyWebhook_Success(t *testing.T) {
	stub := newPayPalStub(t, "SUCCESS")
	client := stub.client()
	body := []byte(`{"id":"WH-EVT-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`)

	ok, err := client.VerifyWebhook(context.Background(), payPalHeaders(), body)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "SHA256withRSA", stub.lastRequest.AuthAlgo)
	assert.Equal(t, "https://api.paypal.com/cert.pem", stub.lastRequest.CertURL)
	assert.Equal(t, "trans-1", stub.lastRequest.TransmissionID)
	assert.Equal(t, "WH-1", stub.lastRequest.WebhookID)
	assert.JSONEq(t, string(body), string(stub.lastRequest.WebhookEvent))

	ok, err = client.VerifyWebhook(context.Background(), payPalHeaders(), body)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), stub.tokenCalls.Load(), "token must be reused until expiry")
	assert.Equal(t, int32(2), stub.verifyCalls.Load())
}

func TestPayPalVerifyWebhook_Failure(t *testing.T) {
	stub := newPayPalStub(t, "FAILURE")
	ok, err := stub.client().VerifyWebhook(context.Background(), payPalHeaders(), []byte(`{"id":"x"}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPayPalVerifyWebhook_MissingHeaderSkipsRemoteCall(t *testing.T) {
	stub := newPayPalStub(t, "SUCCESS")
	headers := payPalHeaders()
	delete(headers, "Paypal-Transmission-Sig")

	ok, err := stub.client().VerifyWebhook(context.Background(), headers, []byte(`{"id":"x"}`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(0), stub.verifyCalls.Load())
}

func TestPayPalVerifyWebhook_BadCredentials(t *testing.T) {
	stub := newPayPalStub(t, "SUCCESS")
	client := NewPayPalClient(PayPalConfig{ClientID: "client", ClientSecret: "wrong", WebhookID: "WH-1", BaseURL: stub.server.URL})

	ok, err := client.VerifyWebhook(context.Background(), payPalHeaders(), []byte(`{"id":"x"}`))
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestParsePayPalEvent_CaptureCompleted(t *testing.T) {
	raw := []byte(`{
		"id": "WH-EVT-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {
			"id": "tx_1",
			"status": "COMPLETED",
			"amount": {"currency_code": "USD", "value": "95.00"},
			"custom_id": "order_1700000000_ab12cd34"
		}
	}`)

	ev, err := ParsePayPalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, EventApproved, ev.Status)
	assert.Equal(t, "tx_1", ev.TransactionID)
	assert.Equal(t, "WH-EVT-1", ev.EventID)
	assert.Equal(t, "order_1700000000_ab12cd34", ev.OrderRef)
	assert.Equal(t, "95", ev.Amount.String())
	assert.Equal(t, int64(9500), ev.AmountMinor)
	assert.Equal(t, "USD", ev.Currency)
}

func TestParsePayPalEvent_OrderCompletedUsesCaptureID(t *testing.T) {
	raw := []byte(`{
		"id": "WH-EVT-2",
		"event_type": "CHECKOUT.ORDER.COMPLETED",
		"resource": {
			"id": "5O190127TN364715T",
			"purchase_units": [{
				"reference_id": "default",
				"invoice_id": "order_1700000000_ab12cd34",
				"amount": {"currency_code": "USD", "value": "95.00"},
				"payments": {"captures": [{"id": "tx_1", "amount": {"currency_code": "USD", "value": "95.00"}}]}
			}]
		}
	}`)

	ev, err := ParsePayPalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, EventApproved, ev.Status)
	assert.Equal(t, "tx_1", ev.TransactionID)
	assert.Equal(t, "order_1700000000_ab12cd34", ev.OrderRef)
}

func TestParsePayPalEvent_DefaultReferenceIDIsNotAReference(t *testing.T) {
	raw := []byte(`{"id":"e","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORD-1","purchase_units":[{"reference_id":"default"}]}}`)

	ev, err := ParsePayPalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, EventPending, ev.Status)
	assert.Equal(t, "ORD-1", ev.TransactionID)
	assert.Empty(t, ev.OrderRef)
	assert.False(t, ev.Actionable())
}

func TestParsePayPalEvent_IgnoredAndMalformed(t *testing.T) {
	ev, err := ParsePayPalEvent([]byte(`{"id":"e","event_type":"BILLING.PLAN.CREATED","resource":{}}`))
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, ev.Status)

	_, err = ParsePayPalEvent([]byte(`{"id":"e","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"tx","custom_id":"r"}}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = ParsePayPalEvent([]byte(`{`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestPayPalBaseURL(t *testing.T) {
	assert.Equal(t, PayPalLiveBaseURL, PayPalBaseURL(true))
	assert.Equal(t, PayPalSandboxBaseURL, PayPalBaseURL(false))
}
