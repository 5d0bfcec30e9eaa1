package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/ShopFox/app/controllers"
	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
	"github.com/ManuelReschke/ShopFox/internal/pkg/cache"
	"github.com/ManuelReschke/ShopFox/internal/pkg/checkout"
	"github.com/ManuelReschke/ShopFox/internal/pkg/database"
	"github.com/ManuelReschke/ShopFox/internal/pkg/discounts"
	"github.com/ManuelReschke/ShopFox/internal/pkg/env"
	"github.com/ManuelReschke/ShopFox/internal/pkg/mail"
	"github.com/ManuelReschke/ShopFox/internal/pkg/notify"
	"github.com/ManuelReschke/ShopFox/internal/pkg/orders"
	"github.com/ManuelReschke/ShopFox/internal/pkg/payments"
	"github.com/ManuelReschke/ShopFox/internal/pkg/router"
)

func main() {
	app, cfg := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *env.Config) {
	env.SetupEnvFile()
	if env.IsDev() {
		fiberlog.SetLevel(fiberlog.LevelDebug)
	}
	cfg, err := env.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/shopfox to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "ShopFox",
		BodyLimit: 1 << 20, // 1 MiB
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, newControllers(cfg, repository.GetGlobalRepositories()))

	return app, cfg
}

func newControllers(cfg *env.Config, repos *repository.Repositories) router.Controllers {
	integritySecrets := map[string]string{
		models.PaymentProviderBold:  cfg.BoldIntegrityKey,
		models.PaymentProviderWompi: cfg.WompiIntegritySecret,
	}

	var channels []notify.Channel
	if cfg.NotifyWebhookURL != "" {
		channels = append(channels, notify.NewChatNotifier(cfg.NotifyWebhookURL, cfg.NotifyTimeout))
	}
	if cfg.SMTPHost != "" {
		channels = append(channels, notify.NewEmailNotifier(mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.SMTPTimeout,
		})))
	}

	var lock orders.Locker
	if client := cache.GetClient(); client != nil {
		lock = cache.NewDeliveryLock(client, cfg.DeliveryLockTTL)
	}

	finalizer := orders.NewFinalizer(repos, notify.NewDispatcher(channels...), lock, orders.Config{
		Surcharge:        cfg.CustomizationSurcharge,
		IntegritySecrets: integritySecrets,
	})

	webhookCfg := controllers.WebhookConfig{
		BoldSecret:        cfg.BoldSecretKey,
		WompiEventsSecret: cfg.WompiEventsSecret,
		RelaxedPayPal:     !cfg.IsProduction(),
		Timeout:           cfg.WebhookTimeout,
	}
	if cfg.PayPalClientID != "" {
		webhookCfg.PayPal = payments.NewPayPalClient(payments.PayPalConfig{
			ClientID:     cfg.PayPalClientID,
			ClientSecret: cfg.PayPalClientSecret,
			WebhookID:    cfg.PayPalWebhookID,
			BaseURL:      payments.PayPalBaseURL(cfg.IsProduction()),
		})
	}

	validator := discounts.NewValidator(repos.Discount)
	return router.Controllers{
		Webhook: controllers.NewWebhookController(finalizer, orders.NewWebhookLog(repos.WebhookEvent), webhookCfg),
		Checkout: controllers.NewCheckoutController(
			checkout.NewCreator(repos.PendingOrder, validator, cfg.CustomizationSurcharge, integritySecrets),
			checkout.NewStatusReader(repos.PendingOrder, repos.Order),
			validator,
		),
	}
}
