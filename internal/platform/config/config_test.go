package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvJWTSigningKey(t *testing.T) {
	t.Run("falls back to the development key and reports it", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "")

		cfg := FromEnv()
		assert.Equal(t, DefaultJWTSigningKey, cfg.JWTSigningKey)
		assert.True(t, cfg.UsingDefaultJWTKey())
	})

	t.Run("configured key is not flagged", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "a-real-secret")

		cfg := FromEnv()
		assert.Equal(t, "a-real-secret", cfg.JWTSigningKey)
		assert.False(t, cfg.UsingDefaultJWTKey())
	})
}
