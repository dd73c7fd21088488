package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp keeps a developer's .env out of the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sweet_shop.db", cfg.DBPath)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "", cfg.AdminEmail)
	assert.Equal(t, "", cfg.RedisAddr)
	assert.Equal(t, 20, cfg.PurchaseRateLimit)
	assert.Equal(t, time.Second, cfg.PurchaseRateWindow)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ALGORITHM", "HS512")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "90")
	t.Setenv("ADMIN_EMAIL", "admin@sweetshop.com")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("PURCHASE_RATE_WINDOW_SEC", "5")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, https://shop.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "HS512", cfg.JWTAlgorithm)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "admin@sweetshop.com", cfg.AdminEmail)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.PurchaseRateWindow)
	assert.Equal(t, []string{"http://localhost:5173", "https://shop.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile(".env", []byte("SECRET_KEY=from-file\nADMIN_EMAIL=boss@shop.io\n"), 0o600))
	t.Setenv("SECRET_KEY", "")
	os.Unsetenv("SECRET_KEY")
	t.Setenv("ADMIN_EMAIL", "")
	os.Unsetenv("ADMIN_EMAIL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "boss@shop.io", cfg.AdminEmail)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"SECRET_KEY": ""}},
		{"bad algorithm", map[string]string{"ALGORITHM": "RS256"}},
		{"zero ttl", map[string]string{"ACCESS_TOKEN_EXPIRE_MINUTES": "0"}},
		{"non-numeric ttl", map[string]string{"ACCESS_TOKEN_EXPIRE_MINUTES": "soon"}},
		{"zero rate limit", map[string]string{"PURCHASE_RATE_LIMIT": "0"}},
		{"bad redis db", map[string]string{"REDIS_DB": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv("SECRET_KEY", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
