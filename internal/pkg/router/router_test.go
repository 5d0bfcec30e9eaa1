package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ShopFox/app/controllers"
	"github.com/ManuelReschke/ShopFox/app/repository"
	"github.com/ManuelReschke/ShopFox/internal/pkg/checkout"
	"github.com/ManuelReschke/ShopFox/internal/pkg/discounts"
	"github.com/ManuelReschke/ShopFox/internal/pkg/orders"
	"github.com/ManuelReschke/ShopFox/internal/pkg/payments"
	"github.com/ManuelReschke/ShopFox/internal/testutil"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	validator := discounts.NewValidator(repos.Discount)

	app := fiber.New()
	InstallRouter(app, Controllers{
		Webhook: controllers.NewWebhookController(
			orders.NewFinalizer(repos, nil, nil, orders.Config{}),
			orders.NewWebhookLog(repos.WebhookEvent),
			controllers.WebhookConfig{BoldSecret: "s", WompiEventsSecret: "s"},
		),
		Checkout: controllers.NewCheckoutController(
			checkout.NewCreator(repos.PendingOrder, validator, payments.DefaultSurcharge, nil),
			checkout.NewStatusReader(repos.PendingOrder, repos.Order),
			validator,
		),
	})
	return app
}

func TestRoutes(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", "", fiber.StatusOK},
		{"bold unsigned", http.MethodPost, "/webhooks/bold", `{}`, fiber.StatusBadRequest},
		{"wompi unsigned", http.MethodPost, "/webhooks/wompi", `{}`, fiber.StatusBadRequest},
		{"paypal unverified", http.MethodPost, "/webhooks/paypal", `{}`, fiber.StatusBadRequest},
		{"unknown status", http.MethodGet, "/api/v1/checkout/pending-orders/order_1_deadbeef/status", "", fiber.StatusNotFound},
		{"validate discount", http.MethodPost, "/api/v1/checkout/discounts/validate", `{"code":"X","subtotal":"1"}`, fiber.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestWebhookPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/webhooks/wompi", nil)
	req.Header.Set("Origin", "https://checkout.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
