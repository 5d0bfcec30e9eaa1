package env

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	Env = map[string]string{}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.AppEnv)
	assert.True(t, cfg.IsProduction())
	assert.True(t, decimal.NewFromInt(5).Equal(cfg.CustomizationSurcharge))
	assert.Equal(t, 30*time.Second, cfg.DeliveryLockTTL)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
}

func TestLoadConfig_FileValuesFillGaps(t *testing.T) {
	Env = map[string]string{
		"APP_ENV":                 "dev",
		"BOLD_SECRET_KEY":         "from-file",
		"CUSTOMIZATION_SURCHARGE": "7.5",
	}
	t.Cleanup(func() { Env = nil })
	t.Setenv("BOLD_SECRET_KEY", "from-process")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "from-process", cfg.BoldSecretKey)
	assert.Equal(t, "7.5", cfg.CustomizationSurcharge.String())
}

func TestGetEnv(t *testing.T) {
	Env = map[string]string{"SHOPFOX_A": "file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("SHOPFOX_B", "process")

	assert.Equal(t, "file", GetEnv("SHOPFOX_A", "def"))
	assert.Equal(t, "process", GetEnv("SHOPFOX_B", "def"))
	assert.Equal(t, "def", GetEnv("SHOPFOX_C", "def"))
}
