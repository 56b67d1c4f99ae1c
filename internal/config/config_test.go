package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.PushCooldown)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Minute, cfg.HealthInterval)
	assert.Zero(t, cfg.WeatherMaxRetries)
	assert.True(t, cfg.ConditionalWrites)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "weather-app-users", cfg.Dynamo.Table)
	assert.Equal(t, "weather-app-users:", cfg.Redis.KeyPrefix)
}

func TestFromViper_Overrides(t *testing.T) {
	t.Setenv("PUSH_COOLDOWN", "90s")
	t.Setenv("STORE_BACKEND", "DynamoDB")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("GATE_CONDITIONAL_WRITES", "false")
	t.Setenv("WEATHER_MAX_RETRIES", "2")
	t.Setenv("REDIS_DB", "3")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.PushCooldown)
	assert.Equal(t, "dynamodb", cfg.StoreBackend)
	assert.Equal(t, "http://localhost:8000", cfg.Dynamo.Endpoint)
	assert.False(t, cfg.ConditionalWrites)
	assert.Equal(t, 2, cfg.WeatherMaxRetries)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestFromViper_LegacyWeatherKey(t *testing.T) {
	t.Setenv("WEATHER_KEY", "legacy")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.OpenWeatherAPIKey)
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad cooldown":      {"PUSH_COOLDOWN", "ten minutes"},
		"negative cooldown": {"PUSH_COOLDOWN", "-1m"},
		"bad timeout":       {"HTTP_TIMEOUT", "soon"},
		"bad retries":       {"WEATHER_MAX_RETRIES", "many"},
		"negative retries":  {"WEATHER_MAX_RETRIES", "-1"},
		"unknown backend":   {"STORE_BACKEND", "postgres"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromViper(newViper())
			assert.Error(t, err)
		})
	}
}
