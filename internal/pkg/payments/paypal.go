package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	PayPalSandboxBaseURL = "https://api-m.sandbox.paypal.com"
	PayPalLiveBaseURL    = "https://api-m.paypal.com"

	payPalTokenPath  = "/v1/oauth2/token"
	payPalVerifyPath = "/v1/notifications/verify-webhook-signature"

	payPalVerificationSuccess = "SUCCESS"
	defaultPayPalTimeout      = 5 * time.Second
)

// PayPal transmission headers required for signature introspection.
const (
	PayPalHeaderAuthAlgo         = "PAYPAL-AUTH-ALGO"
	PayPalHeaderCertURL          = "PAYPAL-CERT-URL"
	PayPalHeaderTransmissionID   = "PAYPAL-TRANSMISSION-ID"
	PayPalHeaderTransmissionSig  = "PAYPAL-TRANSMISSION-SIG"
	PayPalHeaderTransmissionTime = "PAYPAL-TRANSMISSION-TIME"
)

const (
	payPalCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	payPalCapturePending   = "PAYMENT.CAPTURE.PENDING"
	payPalCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	payPalCaptureDeclined  = "PAYMENT.CAPTURE.DECLINED"
	payPalOrderCompleted   = "CHECKOUT.ORDER.COMPLETED"
	payPalOrderApproved    = "CHECKOUT.ORDER.APPROVED"
	payPalOrderVoided      = "CHECKOUT.ORDER.VOIDED"
)

// PayPalConfig holds the REST credentials used for webhook introspection.
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	WebhookID    string
	BaseURL      string
	Timeout      time.Duration
}

// PayPalClient verifies webhook transmissions through PayPal's REST API.
type PayPalClient struct {
	BaseURL    string
	WebhookID  string
	HTTPClient *http.Client

	tokens oauth2.TokenSource
}

// PayPalBaseURL selects sandbox or live endpoints.
func PayPalBaseURL(production bool) string {
	if production {
		return PayPalLiveBaseURL
	}
	return PayPalSandboxBaseURL
}

// NewPayPalClient creates a client whose bearer token is fetched with the
// client-credentials grant and reused until it expires.
func NewPayPalClient(cfg PayPalConfig) *PayPalClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPayPalTimeout
	}
	baseURL := strings.TrimRight(firstNonEmpty(cfg.BaseURL, PayPalSandboxBaseURL), "/")
	httpClient := &http.Client{Timeout: timeout}

	cc := &clientcredentials.Config{
		ClientID:     strings.TrimSpace(cfg.ClientID),
		ClientSecret: strings.TrimSpace(cfg.ClientSecret),
		TokenURL:     baseURL + payPalTokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// The token source outlives any single request, so it gets its own
	// context; the client timeout bounds each token fetch.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &PayPalClient{
		BaseURL:    baseURL,
		WebhookID:  strings.TrimSpace(cfg.WebhookID),
		HTTPClient: httpClient,
		tokens:     cc.TokenSource(tokenCtx),
	}
}

type payPalVerifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type payPalVerifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// headerValue looks a header up case-insensitively.
func headerValue(headers map[string][]string, name string) string {
	for k, values := range headers {
		if strings.EqualFold(k, name) && len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}
	return ""
}

// VerifyWebhook asks PayPal whether the transmission is authentic. A false
// result with a nil error means PayPal answered but did not confirm it.
func (c *PayPalClient) VerifyWebhook(ctx context.Context, headers map[string][]string, rawBody []byte) (bool, error) {
	if c.WebhookID == "" {
		return false, errors.New("PAYPAL_WEBHOOK_ID is not configured")
	}

	req := payPalVerifyRequest{
		AuthAlgo:         headerValue(headers, PayPalHeaderAuthAlgo),
		CertURL:          headerValue(headers, PayPalHeaderCertURL),
		TransmissionID:   headerValue(headers, PayPalHeaderTransmissionID),
		TransmissionSig:  headerValue(headers, PayPalHeaderTransmissionSig),
		TransmissionTime: headerValue(headers, PayPalHeaderTransmissionTime),
		WebhookID:        c.WebhookID,
		WebhookEvent:     json.RawMessage(rawBody),
	}
	if req.AuthAlgo == "" || req.CertURL == "" || req.TransmissionID == "" || req.TransmissionSig == "" || req.TransmissionTime == "" {
		return false, nil
	}
	if !json.Valid(rawBody) {
		return false, nil
	}

	token, err := c.tokens.Token()
	if err != nil {
		return false, fmt.Errorf("paypal oauth token: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return false, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+payPalVerifyPath, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	token.SetAuthHeader(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("paypal verify request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("paypal verify failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out payPalVerifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return false, fmt.Errorf("paypal verify response: %w", err)
	}
	return out.VerificationStatus == payPalVerificationSuccess, nil
}

type payPalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type payPalCapture struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Amount    payPalAmount `json:"amount"`
	CustomID  string       `json:"custom_id"`
	InvoiceID string       `json:"invoice_id"`
}

type payPalResource struct {
	ID                string       `json:"id"`
	Status            string       `json:"status"`
	Amount            payPalAmount `json:"amount"`
	CustomID          string       `json:"custom_id"`
	InvoiceID         string       `json:"invoice_id"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
	PurchaseUnits []payPalPurchaseUnit `json:"purchase_units"`
}

type payPalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id"`
	CustomID    string       `json:"custom_id"`
	InvoiceID   string       `json:"invoice_id"`
	Amount      payPalAmount `json:"amount"`
	Payments    struct {
		Captures []payPalCapture `json:"captures"`
	} `json:"payments"`
}

// firstUnit returns the first purchase unit or an empty one.
func (r *payPalResource) firstUnit() payPalPurchaseUnit {
	if len(r.PurchaseUnits) == 0 {
		return payPalPurchaseUnit{}
	}
	return r.PurchaseUnits[0]
}

func (r *payPalResource) firstCapture() *payPalCapture {
	if len(r.PurchaseUnits) == 0 || len(r.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil
	}
	return &r.PurchaseUnits[0].Payments.Captures[0]
}

type payPalWebhook struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

// PayPal defaults reference_id to "default" when the merchant sets none.
const payPalDefaultReferenceID = "default"

var payPalReferenceStrategies = []referenceStrategy[*payPalResource]{
	{name: "resource.custom_id", get: func(r *payPalResource) string { return r.CustomID }},
	{name: "resource.invoice_id", get: func(r *payPalResource) string { return r.InvoiceID }},
	{name: "purchase_units[0].custom_id", get: func(r *payPalResource) string { return r.firstUnit().CustomID }},
	{name: "purchase_units[0].invoice_id", get: func(r *payPalResource) string { return r.firstUnit().InvoiceID }},
	{name: "purchase_units[0].payments.captures[0].custom_id", get: func(r *payPalResource) string {
		if c := r.firstCapture(); c != nil {
			return firstNonEmpty(c.CustomID, c.InvoiceID)
		}
		return ""
	}},
	{name: "purchase_units[0].reference_id", get: func(r *payPalResource) string {
		ref := r.firstUnit().ReferenceID
		if ref == payPalDefaultReferenceID {
			return ""
		}
		return ref
	}},
}

// ParsePayPalEvent decodes an authenticated PayPal delivery. Capture events
// and completed checkout orders both resolve to the capture id so that they
// deduplicate against each other.
func ParsePayPalEvent(rawBody []byte) (*PaymentEvent, error) {
	var w payPalWebhook
	if err := json.Unmarshal(rawBody, &w); err != nil {
		return nil, fmt.Errorf("%w: paypal: %v", ErrMalformedPayload, err)
	}
	if w.EventType == "" {
		return nil, fmt.Errorf("%w: paypal: missing event_type", ErrMalformedPayload)
	}

	ev := &PaymentEvent{
		Provider:      models.PaymentProviderPayPal,
		EventID:       w.ID,
		EventType:     w.EventType,
		Status:        payPalStatus(w.EventType),
		PaymentMethod: "paypal",
		Raw:           rawBody,
	}
	if ev.Status == EventIgnored {
		return ev, nil
	}

	var res payPalResource
	if len(w.Resource) == 0 {
		return nil, fmt.Errorf("%w: paypal: missing resource", ErrMalformedPayload)
	}
	if err := json.Unmarshal(w.Resource, &res); err != nil {
		return nil, fmt.Errorf("%w: paypal: resource: %v", ErrMalformedPayload, err)
	}
	ev.OrderRef, _ = extractReference(&res, payPalReferenceStrategies)

	amount := res.Amount
	switch w.EventType {
	case payPalOrderCompleted, payPalOrderApproved, payPalOrderVoided:
		ev.TransactionID = res.ID
		if c := res.firstCapture(); c != nil {
			ev.TransactionID = firstNonEmpty(c.ID, res.ID)
			amount = c.Amount
		} else if len(res.PurchaseUnits) > 0 {
			amount = res.PurchaseUnits[0].Amount
		}
	default:
		ev.TransactionID = res.ID
	}

	if ev.TransactionID == "" {
		return nil, fmt.Errorf("%w: paypal: missing transaction id", ErrMalformedPayload)
	}
	ev.Currency = strings.ToUpper(firstNonEmpty(amount.CurrencyCode, CurrencyUSD))
	if amount.Value != "" {
		value, err := decimal.NewFromString(amount.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: paypal: amount: %v", ErrMalformedPayload, err)
		}
		ev.Amount = value
		ev.AmountMinor = ToMinorUnits(value, decimal.NewFromInt(1), ev.Currency)
	} else if ev.Status == EventApproved {
		return nil, fmt.Errorf("%w: paypal: missing amount", ErrMalformedPayload)
	}
	return ev, nil
}

func payPalStatus(eventType string) EventStatus {
	switch eventType {
	case payPalCaptureCompleted, payPalOrderCompleted:
		return EventApproved
	case payPalOrderApproved, payPalCapturePending:
		return EventPending
	case payPalCaptureDenied, payPalCaptureDeclined:
		return EventDeclined
	case payPalOrderVoided:
		return EventVoided
	default:
		return EventIgnored
	}
}
