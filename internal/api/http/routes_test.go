package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-tracker/internal/cloudapp"
	"github.com/i474232898/weather-tracker/internal/gate"
	"github.com/i474232898/weather-tracker/internal/scheduler"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather"
)

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Fetch(context.Context, weather.Location) (weather.Reading, error) {
	return weather.Reading{
		Place:       "Paris",
		Temp:        283.15,
		TempMin:     280.15,
		TempMax:     285.15,
		HumidityPct: 80,
		PressureHpa: 1020,
		Description: "Rain",
	}, nil
}

func newTestServer(t *testing.T, status func() scheduler.Status) *fiber.App {
	t.Helper()
	app := fiber.New()
	svc := cloudapp.New(stubProvider{}, gate.New(store.NewMemoryStore()), 10*time.Minute)
	RegisterRoutes(app, Deps{
		App:         svc,
		Descriptor:  cloudapp.NewDescriptor(""),
		StoreStatus: status,
	})
	return app
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestDescriptorEndpoint(t *testing.T) {
	app := newTestServer(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/apps/weather", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	var d cloudapp.Descriptor
	decode(t, resp, &d)
	assert.Equal(t, "io.nomie.apps.weather", d.ID)
	assert.Equal(t, "Weather Tracker", d.Name)
}

func TestCaptureEndpoint_GrantThenCooldown(t *testing.T) {
	app := newTestServer(t, nil)
	body := `{"anonid":"u1","experiment":{"location":[48.85,2.35],"info":{"units":{"value":"celcius"}},"slots":{"temp":{"tracker":{"label":"Temp"}}}}}`

	req := httptest.NewRequest(http.MethodPost, "/apps/weather", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	var out cloudapp.Response
	decode(t, resp, &out)
	assert.Equal(t, "Paris Weather", out.Title)
	assert.Equal(t, []string{"/action=track/label=Temp/value=10.00"}, out.Commands)

	// Same user again right away: summary only.
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/apps/weather", strings.NewReader(body)))
	require.NoError(t, err)
	out = cloudapp.Response{}
	decode(t, resp, &out)
	assert.Empty(t, out.Commands)
	assert.NotEmpty(t, out.HTML)
	require.NotNil(t, out.Age)
}

func TestCaptureEndpoint_NoLocation(t *testing.T) {
	app := newTestServer(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/apps/weather", strings.NewReader(`{"anonid":"u1","experiment":{}}`)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	assert.Contains(t, out["html"], "Current Location can't be found")
	assert.NotContains(t, out, "commands")
}

func TestCaptureEndpoint_MalformedBody(t *testing.T) {
	app := newTestServer(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/apps/weather", strings.NewReader(`{"anonid":`)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLeaveEndpoint(t *testing.T) {
	app := newTestServer(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/apps/weather/leave", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	st := scheduler.Status{Name: "redis", Healthy: false, Error: "connection refused", CheckedAt: time.Now()}
	app := newTestServer(t, func() scheduler.Status { return st })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, "degraded", out["status"])
	assert.Equal(t, "weather-tracker", out["service"])
	storeSection := out["store"].(map[string]any)
	assert.Equal(t, "redis", storeSection["name"])
	assert.Equal(t, false, storeSection["healthy"])
}
