package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OTP_TTL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Geocoder.Timeout)
	assert.Equal(t, 10, cfg.Limits.AuthPerMinute)
	assert.False(t, cfg.Limits.Disabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("RENTMEROOM_ADDR", ":9090")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("OTP_EMAIL_STRICT", "true")
	t.Setenv("RATE_LIMIT_WRITE_PER_MINUTE", "5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Auth.OTPEmailStrict)
	assert.Equal(t, 5, cfg.Limits.WritePerMinute)
}

func TestFromEnv_RejectsMalformedValues(t *testing.T) {
	t.Setenv("OTP_TTL", "five minutes")
	t.Setenv("REDIS_POOL_SIZE", "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTP_TTL")
	assert.Contains(t, err.Error(), "REDIS_POOL_SIZE")
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GEOCODER_USER_AGENT=rentmeroom-test\n"), 0o600))
	t.Setenv("GEOCODER_USER_AGENT", "")
	require.NoError(t, os.Unsetenv("GEOCODER_USER_AGENT"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rentmeroom-test", cfg.Geocoder.UserAgent)
	require.NoError(t, os.Unsetenv("GEOCODER_USER_AGENT"))
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
