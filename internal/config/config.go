package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-tracker/internal/cloudapp"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather/providers"
)

type AppConfig struct {
	Port      string
	PublicURL string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	HTTPTimeout        time.Duration
	WeatherMaxRetries  int

	// PushCooldown is the minimum time between two command pushes for one user.
	PushCooldown      time.Duration
	ConditionalWrites bool

	StoreBackend string
	Redis        store.RedisConfig
	Dynamo       store.DynamoConfig

	// HealthInterval controls how often the store is probed.
	HealthInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment (and a .env file, when present)
// with sensible defaults. The returned note is non-empty when no .env file was loaded.
func Load() (*AppConfig, string, error) {
	var note string
	if err := godotenv.Load(); err != nil {
		note = fmt.Sprintf("no .env file found or error loading it: %v", err)
	}

	cfg, err := FromViper(newViper())
	return cfg, note, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_PUBLIC_URL", cloudapp.DefaultPublicURL)
	v.SetDefault("OPENWEATHER_BASE_URL", providers.DefaultOpenWeatherURL)
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("WEATHER_MAX_RETRIES", 0)
	v.SetDefault("PUSH_COOLDOWN", "10m")
	v.SetDefault("GATE_CONDITIONAL_WRITES", true)
	v.SetDefault("STORE_BACKEND", store.BackendMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "weather-app-users:")
	v.SetDefault("DYNAMODB_TABLE", "weather-app-users")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("HEALTH_INTERVAL", "1m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	// WEATHER_KEY is the name older deployments used.
	_ = v.BindEnv("OPENWEATHER_API_KEY", "OPENWEATHER_API_KEY", "WEATHER_KEY")
	_ = v.BindEnv("REDIS_PASSWORD")
	_ = v.BindEnv("DYNAMODB_ENDPOINT")

	return v
}

// FromViper builds an AppConfig from an already populated viper instance.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:               v.GetString("PORT"),
		PublicURL:          v.GetString("APP_PUBLIC_URL"),
		OpenWeatherAPIKey:  v.GetString("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: v.GetString("OPENWEATHER_BASE_URL"),
		ConditionalWrites:  v.GetBool("GATE_CONDITIONAL_WRITES"),
		StoreBackend:       strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		Redis: store.RedisConfig{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		},
		Dynamo: store.DynamoConfig{
			Table:    v.GetString("DYNAMODB_TABLE"),
			Region:   v.GetString("AWS_REGION"),
			Endpoint: v.GetString("DYNAMODB_ENDPOINT"),
		},
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.PushCooldown, err = duration(v, "PUSH_COOLDOWN"); err != nil {
		return nil, err
	}
	if cfg.PushCooldown < 0 {
		return nil, fmt.Errorf("invalid PUSH_COOLDOWN: must not be negative")
	}
	if cfg.HealthInterval, err = duration(v, "HEALTH_INTERVAL"); err != nil {
		return nil, err
	}

	retries, err := intValue(v, "WEATHER_MAX_RETRIES")
	if err != nil {
		return nil, err
	}
	if retries < 0 {
		return nil, fmt.Errorf("invalid WEATHER_MAX_RETRIES: must not be negative")
	}
	cfg.WeatherMaxRetries = retries

	switch cfg.StoreBackend {
	case store.BackendMemory, store.BackendRedis, store.BackendDynamoDB:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want %s, %s or %s",
			cfg.StoreBackend, store.BackendMemory, store.BackendRedis, store.BackendDynamoDB)
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intValue(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
