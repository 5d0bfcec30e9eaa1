package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/ShopFox/app/controllers"
	"github.com/ManuelReschke/ShopFox/internal/pkg/cache"
)

const (
	checkoutRateLimit  = 30
	checkoutRateWindow = time.Minute
)

type ApiRouter struct {
	checkout *controllers.CheckoutController
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiterConfig()))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	co := v1.Group("/checkout")
	co.Post("/pending-orders", h.checkout.HandleCreatePendingOrder)
	co.Get("/pending-orders/:ref/status", h.checkout.HandlePendingOrderStatus)
	co.Post("/discounts/validate", h.checkout.HandleValidateDiscount)
}

func NewApiRouter(checkout *controllers.CheckoutController) *ApiRouter {
	return &ApiRouter{checkout: checkout}
}

// limiterConfig shares rate limit counters across instances through Redis
// when a cache is connected and falls back to in-memory counters otherwise.
func limiterConfig() limiter.Config {
	cfg := limiter.Config{
		Max:        checkoutRateLimit,
		Expiration: checkoutRateWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited", "message": "Too many requests"})
		},
	}

	client := cache.GetClient()
	if client == nil {
		return cfg
	}
	opts := client.Options()
	host, portStr, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		log.Warnf("[Router] invalid cache address %q, using in-memory rate limiter", opts.Addr)
		return cfg
	}
	port, _ := strconv.Atoi(portStr)

	// Separate database for limiter counters (delivery locks use DB 0)
	cfg.Storage = redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: 1,
		Reset:    false,
	})
	return cfg
}
