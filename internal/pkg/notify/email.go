package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/ManuelReschke/ShopFox/internal/pkg/mail"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var orderConfirmationTemplate = template.Must(
	template.New("order_confirmation.html").
		Funcs(template.FuncMap{
			"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
			"lineTotal": func(price decimal.Decimal, qty int) string {
				return price.Mul(decimal.NewFromInt(int64(qty))).StringFixed(2)
			},
		}).
		ParseFS(templateFS, "templates/order_confirmation.html"),
)

// ErrNoRecipient means the order snapshot carries no customer email.
var ErrNoRecipient = errors.New("order has no customer email")

// EmailNotifier sends the order confirmation to the customer.
type EmailNotifier struct {
	sender mail.Sender
}

func NewEmailNotifier(sender mail.Sender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, o *OrderNotification) error {
	if o.Customer.Email == "" {
		return ErrNoRecipient
	}
	html, err := RenderOrderConfirmation(o)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Order %s confirmed", o.OrderRef)
	return n.sender.SendHTML(ctx, o.Customer.Email, subject, html)
}

// RenderOrderConfirmation renders the confirmation email body.
func RenderOrderConfirmation(o *OrderNotification) ([]byte, error) {
	var buf bytes.Buffer
	if err := orderConfirmationTemplate.Execute(&buf, o); err != nil {
		return nil, fmt.Errorf("render order confirmation: %w", err)
	}
	return buf.Bytes(), nil
}
