package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("MAX_ATTACHMENT_BYTES", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "dev-secret", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, int64(50<<20), cfg.MaxAttachmentBytes)
}

func TestLoadConfigRequiresSecretOutsideDev(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigParsesTTL(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("MAX_ATTACHMENT_BYTES", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
}

func TestLoadConfigRejectsBadTTL(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("TOKEN_TTL", "ninety minutes")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadAttachmentLimit(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("MAX_ATTACHMENT_BYTES", "-1")

	_, err := LoadConfig()
	assert.Error(t, err)
}
