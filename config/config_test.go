package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	os.Unsetenv("TRADECORE_JWT_SECRET")
	os.Unsetenv("TRADECORE_KILL_SWITCH_TOTP_SECRET")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_AppliesEnvOverridesOverDefaults(t *testing.T) {
	t.Setenv("TRADECORE_JWT_SECRET", "super-secret")
	t.Setenv("TRADECORE_KILL_SWITCH_TOTP_SECRET", "JBSWY3DPEHPK3PXP")
	t.Setenv("TRADECORE_HTTP_PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, "super-secret", cfg.JWTSecret)
	assert.Equal(t, Default().RedisAddr, cfg.RedisAddr)
}
