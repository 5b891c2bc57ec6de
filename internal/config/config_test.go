package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, int64(3000), cfg.Shipping.FreeThresholdCents)
	assert.Equal(t, int64(200), cfg.Shipping.FlatFeeCents)
	assert.Equal(t, "resend", cfg.External.Email.Provider)
	assert.Equal(t, cfg.App.SupportEmail, cfg.External.Email.AdminEmail)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("SHIPPING_FLAT_FEE_CENTS", "300")
	t.Setenv("ORDER_SUBMIT_TIMEOUT", "5s")
	t.Setenv("EMAIL_API_KEY", "fallback-key")
	t.Setenv("RESEND_API_KEY", "re_primary")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.dev, https://b.dev")

	cfg := FromEnv()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, int64(300), cfg.Shipping.FlatFeeCents)
	assert.Equal(t, 5*time.Second, cfg.Checkout.SubmitTimeout)
	assert.Equal(t, "re_primary", cfg.External.Email.APIKey)
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, cfg.Security.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"short session secret", func(c *Config) { c.Session.Secret = "short" }, "SESSION_SECRET"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "etcd" }, "unsupported STORAGE_DRIVER"},
		{"file without path", func(c *Config) { c.Storage.Driver = "file"; c.Storage.FilePath = "" }, "STORAGE_FILE_PATH"},
		{"negative fee", func(c *Config) { c.Shipping.FlatFeeCents = -1 }, "negative"},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "APP_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
