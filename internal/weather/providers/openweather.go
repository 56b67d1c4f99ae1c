package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-tracker/internal/weather"
)

// DefaultOpenWeatherURL is the current-conditions endpoint. Without a units
// parameter it reports temperatures in Kelvin.
const DefaultOpenWeatherURL = "http://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// OpenWeatherOption customises an OpenWeatherProvider.
type OpenWeatherOption func(*OpenWeatherProvider)

// WithBaseURL points the provider at another endpoint (tests, proxies).
func WithBaseURL(u string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithBackoff sets the retry policy.
func WithBackoff(b BackoffConfig) OpenWeatherOption {
	return func(p *OpenWeatherProvider) { p.httpCfg.Backoff = b }
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...OpenWeatherOption) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("openweather"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("appid", p.apiKey)

		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("openweather: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64  `json:"dt"`
		Name string `json:"name"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Weather []openWeatherCondition `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("openweather: decode response: %w", err)
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	var description string
	if len(payload.Weather) > 0 {
		description = payload.Weather[0].Main
	}

	return weather.Reading{
		ProviderName: p.name,
		Timestamp:    ts,
		Place:        payload.Name,
		Temp:         weather.Kelvin(payload.Main.Temp),
		TempMin:      weather.Kelvin(payload.Main.TempMin),
		TempMax:      weather.Kelvin(payload.Main.TempMax),
		HumidityPct:  payload.Main.Humidity,
		PressureHpa:  payload.Main.Pressure,
		Condition:    mapOpenWeatherCondition(payload.Weather),
		Description:  description,
	}, nil
}

type openWeatherCondition struct {
	Main string `json:"main"`
}

func mapOpenWeatherCondition(items []openWeatherCondition) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
