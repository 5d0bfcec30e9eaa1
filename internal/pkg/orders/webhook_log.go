package orders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
)

// WebhookLog persists authenticated gateway deliveries and remembers which
// of them were fully handled.
type WebhookLog struct {
	repo repository.WebhookEventRepository
}

func NewWebhookLog(repo repository.WebhookEventRepository) *WebhookLog {
	return &WebhookLog{repo: repo}
}

// Record stores the delivery unless it is already known. Deliveries without
// a gateway event id are keyed by a hash of their payload.
func (l *WebhookLog) Record(ctx context.Context, provider, eventID, eventType string, payload []byte) (bool, *models.PaymentWebhookEvent, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		sum := sha256.Sum256(payload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	return l.repo.CreateIfNotExists(ctx, &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(eventType),
		PayloadJSON:     string(payload),
	})
}

// MarkProcessed records the processing result of a stored delivery. A nil
// err marks it handled; a non-nil err lets a redelivery process it again.
func (l *WebhookLog) MarkProcessed(ctx context.Context, id uint, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return l.repo.MarkProcessed(ctx, id, msg)
}
