package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_EnvAndDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("ADMIN_EMAIL", "admin@vs.in")
	t.Setenv("REDIS_LOCK_TTL", "3s")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Server.CookieSecure)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "admin@vs.in", cfg.Admin.Email)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "vertical_studies", cfg.RabbitMQ.Exchange)
	assert.Equal(t, "Administrator", cfg.Admin.Name)
	assert.Equal(t, 3*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, 15*time.Second, cfg.Redis.LockWait)
}
