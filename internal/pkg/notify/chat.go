package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChatNotifier posts confirmed orders to a chat or automation webhook.
type ChatNotifier struct {
	URL        string
	HTTPClient *http.Client
}

// NewChatNotifier creates a notifier for url with a bounded client timeout.
func NewChatNotifier(url string, timeout time.Duration) *ChatNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ChatNotifier{URL: url, HTTPClient: &http.Client{Timeout: timeout}}
}

func (n *ChatNotifier) Name() string { return "chat" }

type chatMessage struct {
	Event string `json:"event"`
	*OrderNotification
}

func (n *ChatNotifier) Notify(ctx context.Context, o *OrderNotification) error {
	body, err := json.Marshal(chatMessage{Event: "order.confirmed", OrderNotification: o})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("chat webhook failed: status=%d body=%s", resp.StatusCode, string(msg))
	}
	return nil
}
