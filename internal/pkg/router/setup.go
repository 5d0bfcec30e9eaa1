package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ShopFox/app/controllers"
)

// Router registers a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Controllers bundles the handlers the routers mount.
type Controllers struct {
	Webhook  *controllers.WebhookController
	Checkout *controllers.CheckoutController
}

func InstallRouter(app *fiber.App, c Controllers) {
	setup(app, NewHttpRouter(c.Webhook), NewApiRouter(c.Checkout))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
