package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/ManuelReschke/ShopFox/app/controllers"
)

type HttpRouter struct {
	webhooks *controllers.WebhookController
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Payment gateway webhooks (no CSRF, authenticated in the controller)
	webhooks := app.Group("/webhooks", cors.New(cors.Config{
		AllowMethods: "POST,OPTIONS",
	}))
	webhooks.Post("/bold", h.webhooks.HandleBoldWebhook)
	webhooks.Post("/paypal", h.webhooks.HandlePayPalWebhook)
	webhooks.Post("/wompi", h.webhooks.HandleWompiWebhook)
}

func NewHttpRouter(webhooks *controllers.WebhookController) *HttpRouter {
	return &HttpRouter{webhooks: webhooks}
}
