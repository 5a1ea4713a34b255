package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/test")
	t.Setenv("BILLING_TIMEZONE", "")
	t.Setenv("PUBLIC_BASE_URL", "https://billing.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "aud", cfg.Currency)
	assert.Equal(t, "UTC", cfg.Timezone.String())
	assert.Equal(t, "https://billing.example.com", cfg.PublicBaseURL)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestLoad_MissingDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_URL")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/test")
	t.Setenv("BILLING_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.ErrorContains(t, err, "BILLING_TIMEZONE")
}

func TestGetBool(t *testing.T) {
	t.Setenv("FLAG_ON", "true")
	t.Setenv("FLAG_BAD", "maybe")

	assert.True(t, getBool("FLAG_ON", false))
	assert.True(t, getBool("FLAG_BAD", true))
	assert.False(t, getBool("FLAG_UNSET_FOR_TEST", false))
}
