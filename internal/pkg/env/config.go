package env

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Config is the typed view of the service configuration.
type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"prod"`
	AppHost string `env:"APP_HOST" envDefault:"0.0.0.0"`
	AppPort string `env:"APP_PORT" envDefault:"4000"`

	BoldSecretKey        string `env:"BOLD_SECRET_KEY"`
	BoldIntegrityKey     string `env:"BOLD_INTEGRITY_KEY"`
	WompiEventsSecret    string `env:"WOMPI_EVENTS_SECRET"`
	WompiIntegritySecret string `env:"WOMPI_INTEGRITY_SECRET"`

	PayPalClientID     string `env:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `env:"PAYPAL_CLIENT_SECRET"`
	PayPalWebhookID    string `env:"PAYPAL_WEBHOOK_ID"`

	NotifyWebhookURL string        `env:"NOTIFY_WEBHOOK_URL"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`

	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	MailFrom     string        `env:"MAIL_FROM" envDefault:"ShopFox <no-reply@shopfox.local>"`

	CustomizationSurcharge decimal.Decimal `env:"CUSTOMIZATION_SURCHARGE" envDefault:"5"`
	DeliveryLockTTL        time.Duration   `env:"DELIVERY_LOCK_TTL" envDefault:"30s"`
	WebhookTimeout         time.Duration   `env:"WEBHOOK_TIMEOUT" envDefault:"15s"`
}

// LoadConfig parses the config from the process environment. Values from
// the .env file fill variables the process does not set.
func LoadConfig() (*Config, error) {
	opts := env.Options{Environment: mergeEnviron(Env)}
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether hard-fail verification rules apply.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}

func mergeEnviron(fileValues map[string]string) map[string]string {
	merged := env.ToMap(os.Environ())
	for k, v := range fileValues {
		if _, ok := merged[k]; !ok || merged[k] == "" {
			merged[k] = v
		}
	}
	return merged
}
