package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/shopspring/decimal"
)

// BoldSignatureHeader carries the hex HMAC of a Bold delivery.
const BoldSignatureHeader = "x-bold-signature"

const (
	boldSaleApproved = "SALE_APPROVED"
	boldSaleRejected = "SALE_REJECTED"
	boldVoidApproved = "VOID_APPROVED"
)

// VerifyBoldSignature checks hex(HMAC-SHA256(secret, base64(rawBody))) against
// the header value. rawBody must be the bytes exactly as received.
func VerifyBoldSignature(rawBody []byte, signatureHeader, secret string) bool {
	sig := strings.ToLower(strings.TrimSpace(signatureHeader))
	if sig == "" || secret == "" || len(rawBody) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base64.StdEncoding.EncodeToString(rawBody)))
	expected := hex.EncodeToString(mac.Sum(nil))

	if len(sig) != len(expected) {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(expected))
}

type boldWebhook struct {
	ID             string `json:"id"`
	NotificationID string `json:"notification_id"`
	Type           string `json:"type"`
	Subject        string `json:"subject"`
	Data           struct {
		PaymentID string `json:"payment_id"`
		Amount    struct {
			Total    json.Number `json:"total"`
			Currency string      `json:"currency"`
		} `json:"amount"`
		Currency      string `json:"currency"`
		PaymentMethod string `json:"payment_method"`
		Reference     string `json:"reference"`
		OrderID       string `json:"order_id"`
		Metadata      struct {
			Reference string `json:"reference"`
		} `json:"metadata"`
	} `json:"data"`
}

var boldReferenceStrategies = []referenceStrategy[*boldWebhook]{
	{name: "data.metadata.reference", get: func(w *boldWebhook) string { return w.Data.Metadata.Reference }},
	{name: "data.reference", get: func(w *boldWebhook) string { return w.Data.Reference }},
	{name: "data.order_id", get: func(w *boldWebhook) string { return w.Data.OrderID }},
}

// ParseBoldEvent decodes an authenticated Bold delivery.
func ParseBoldEvent(rawBody []byte) (*PaymentEvent, error) {
	var w boldWebhook
	if err := json.Unmarshal(rawBody, &w); err != nil {
		return nil, fmt.Errorf("%w: bold: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(w.Type) == "" {
		return nil, fmt.Errorf("%w: bold: missing type", ErrMalformedPayload)
	}

	ev := &PaymentEvent{
		Provider:      models.PaymentProviderBold,
		EventID:       firstNonEmpty(w.NotificationID, w.ID),
		EventType:     w.Type,
		Status:        boldStatus(w.Type),
		TransactionID: firstNonEmpty(w.Data.PaymentID, w.Subject),
		Currency:      strings.ToUpper(firstNonEmpty(w.Data.Amount.Currency, w.Data.Currency, CurrencyCOP)),
		PaymentMethod: w.Data.PaymentMethod,
		Raw:           rawBody,
	}
	ev.OrderRef, _ = extractReference(&w, boldReferenceStrategies)

	if ev.Status == EventIgnored {
		return ev, nil
	}
	if ev.TransactionID == "" {
		return nil, fmt.Errorf("%w: bold: missing payment_id", ErrMalformedPayload)
	}
	if w.Data.Amount.Total != "" {
		amount, err := decimal.NewFromString(w.Data.Amount.Total.String())
		if err != nil {
			return nil, fmt.Errorf("%w: bold: amount: %v", ErrMalformedPayload, err)
		}
		ev.Amount = amount
		ev.AmountMinor = ToMinorUnits(amount, decimal.NewFromInt(1), ev.Currency)
	} else if ev.Status == EventApproved {
		return nil, fmt.Errorf("%w: bold: missing amount", ErrMalformedPayload)
	}
	return ev, nil
}

func boldStatus(eventType string) EventStatus {
	switch strings.ToUpper(strings.TrimSpace(eventType)) {
	case boldSaleApproved:
		return EventApproved
	case boldSaleRejected:
		return EventDeclined
	case boldVoidApproved:
		return EventVoided
	default:
		return EventIgnored
	}
}
