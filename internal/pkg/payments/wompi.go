package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ManuelReschke/ShopFox/app/models"
)

// WompiChecksumHeader optionally carries the event checksum; the body's
// signature.checksum is used when the header is absent.
const WompiChecksumHeader = "X-Event-Checksum"

const wompiTransactionUpdated = "transaction.updated"

// WompiEnvelope is the outer shape of a Wompi event. Data is kept as the
// exact bytes delivered since the checksum covers them.
type WompiEnvelope struct {
	Event       string          `json:"event"`
	Data        json.RawMessage `json:"data"`
	Environment string          `json:"environment"`
	Signature   struct {
		Properties []string `json:"properties"`
		Checksum   string   `json:"checksum"`
	} `json:"signature"`
	Timestamp json.RawMessage `json:"timestamp"`
	SentAt    string          `json:"sent_at"`
}

// TimestampString returns the event timestamp as sent, without JSON quoting.
func (e *WompiEnvelope) TimestampString() string {
	return strings.Trim(strings.TrimSpace(string(e.Timestamp)), `"`)
}

// DecodeWompiEnvelope reads the envelope needed for checksum verification.
func DecodeWompiEnvelope(rawBody []byte) (*WompiEnvelope, error) {
	var env WompiEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("%w: wompi: %v", ErrMalformedPayload, err)
	}
	if len(env.Data) == 0 || env.TimestampString() == "" {
		return nil, fmt.Errorf("%w: wompi: missing data or timestamp", ErrMalformedPayload)
	}
	return &env, nil
}

// VerifyWompiChecksum checks hex(HMAC-SHA256(secret, timestamp + "." + data)).
func VerifyWompiChecksum(timestamp string, rawData []byte, checksum, secret string) bool {
	sum := strings.ToLower(strings.TrimSpace(checksum))
	if sum == "" || secret == "" || timestamp == "" || len(rawData) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(rawData)
	expected := hex.EncodeToString(mac.Sum(nil))

	if len(sum) != len(expected) {
		return false
	}
	return hmac.Equal([]byte(sum), []byte(expected))
}

type wompiTransaction struct {
	ID                string `json:"id"`
	AmountInCents     int64  `json:"amount_in_cents"`
	Reference         string `json:"reference"`
	Currency          string `json:"currency"`
	PaymentMethodType string `json:"payment_method_type"`
	Status            string `json:"status"`
	PaymentLinkID     string `json:"payment_link_id"`
}

type wompiData struct {
	Transaction wompiTransaction `json:"transaction"`
	Reference   string           `json:"reference"`
}

var wompiReferenceStrategies = []referenceStrategy[*wompiData]{
	{name: "data.transaction.reference", get: func(d *wompiData) string { return d.Transaction.Reference }},
	{name: "data.reference", get: func(d *wompiData) string { return d.Reference }},
}

// ParseWompiEvent decodes the transaction carried by an authenticated envelope.
func ParseWompiEvent(env *WompiEnvelope, rawBody []byte) (*PaymentEvent, error) {
	var data wompiData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: wompi: data: %v", ErrMalformedPayload, err)
	}

	tx := data.Transaction
	ev := &PaymentEvent{
		Provider:      models.PaymentProviderWompi,
		EventType:     env.Event,
		Status:        wompiStatus(env.Event, tx.Status),
		TransactionID: strings.TrimSpace(tx.ID),
		Currency:      strings.ToUpper(firstNonEmpty(tx.Currency, CurrencyCOP)),
		PaymentMethod: tx.PaymentMethodType,
		AmountMinor:   tx.AmountInCents,
		Raw:           rawBody,
	}
	ev.Amount = FromMinorUnits(ev.AmountMinor, ev.Currency)
	ev.OrderRef, _ = extractReference(&data, wompiReferenceStrategies)
	// Wompi has no delivery id; a transaction emits one event per status.
	if ev.TransactionID != "" {
		ev.EventID = ev.TransactionID + ":" + strings.ToUpper(tx.Status)
	}

	if ev.Status != EventIgnored && ev.TransactionID == "" {
		return nil, fmt.Errorf("%w: wompi: missing transaction id", ErrMalformedPayload)
	}
	if ev.Status == EventApproved && ev.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: wompi: missing amount_in_cents", ErrMalformedPayload)
	}
	return ev, nil
}

func wompiStatus(event, txStatus string) EventStatus {
	if event != wompiTransactionUpdated {
		return EventIgnored
	}
	switch strings.ToUpper(strings.TrimSpace(txStatus)) {
	case "APPROVED":
		return EventApproved
	case "DECLINED":
		return EventDeclined
	case "VOIDED":
		return EventVoided
	case "ERROR":
		return EventError
	case "PENDING":
		return EventPending
	default:
		return EventIgnored
	}
}
