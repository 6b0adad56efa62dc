package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":                     "www.example:9000",
		"database_dsn":                           "auth.db",
		"secret_key":                             "my_secret_key",
		"access_token_validity_duration":         "1m",
		"refresh_token_validity_duration":        "3m",
		"email_confirm_token_validity_duration":  "48h",
		"password_reset_token_validity_duration": "20m",
		"kafka_brokers":                          "broker:9092",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "auth.db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 48*time.Hour, cfg.EmailConfirmTokenValidityDuration)
		assert.Equal(t, 20*time.Minute, cfg.PasswordResetTokenValidityDuration)
		assert.Equal(t, "broker:9092", cfg.KafkaBrokers)
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrHTTP:                   "defaults:1234",
			DatabaseDSN:                        "auth.db",
			SecretKey:                          "key",
			AccessTokenValidityDuration:        2 * time.Minute,
			RefreshTokenValidityDuration:       3 * time.Minute,
			EmailConfirmTokenValidityDuration:  4 * time.Minute,
			PasswordResetTokenValidityDuration: 5 * time.Minute,
			KafkaBrokers:                       "b:9092",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "auth.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 4*time.Minute, cfg.EmailConfirmTokenValidityDuration)
		assert.Equal(t, 5*time.Minute, cfg.PasswordResetTokenValidityDuration)
		assert.Equal(t, "b:9092", cfg.KafkaBrokers)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
