// Package cloudapp turns a capture event into the cloud app response: weather
// card HTML plus, when the push gate grants, the track commands to run.
package cloudapp

import (
	"context"
	"errors"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-tracker/internal/gate"
	"github.com/i474232898/weather-tracker/internal/logging"
	"github.com/i474232898/weather-tracker/internal/weather"
)

// Messages set in Response.ErrMessage when the gate fails.
const (
	MsgUserInitFailure = "User Initialization Failure"
	MsgUserSaveFailure = "User Save Failure"
)

// Response is the JSON body returned to the app.
type Response struct {
	HTML       string   `json:"html"`
	Title      string   `json:"title,omitempty"`
	Commands   []string `json:"commands,omitempty"`
	Age        *float64 `json:"age,omitempty"`
	Err        string   `json:"err,omitempty"`
	ErrMessage string   `json:"errMessage,omitempty"`
}

// Evaluator is the push gate as seen by the app.
type Evaluator interface {
	Evaluate(ctx context.Context, id string, now time.Time, cooldown time.Duration) (gate.Result, error)
}

// App processes capture events.
type App struct {
	provider weather.Provider
	gate     Evaluator
	cooldown time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures an App.
type Option func(*App)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithLogger sets the fallback logger used when the request context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an App.
func New(provider weather.Provider, g Evaluator, cooldown time.Duration, opts ...Option) *App {
	a := &App{
		provider: provider,
		gate:     g,
		cooldown: cooldown,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process never fails: problems are reported inside the Response so the app
// can still show something.
func (a *App) Process(ctx context.Context, c Capture) Response {
	log := logging.FromContext(ctx, a.logger).With(zap.String("anonid", c.AnonID))

	if !c.HasLocation() {
		log.Debug("capture without location")
		return Response{HTML: RenderNoLocation()}
	}

	loc, err := c.Location()
	if err != nil {
		log.Info("unusable location", zap.Error(err))
		return errorResponse(ErrNoLocation)
	}

	reading, err := a.provider.Fetch(ctx, loc)
	if err != nil {
		log.Warn("weather fetch failed", zap.String("provider", a.provider.Name()), zap.String("location", loc.Key()), zap.Error(err))
		return errorResponse(err)
	}

	summary := Summarize(reading, c.Unit())
	html, err := RenderSummary(summary)
	if err != nil {
		log.Error("render summary failed", zap.Error(err))
		return errorResponse(err)
	}

	resp := Response{
		HTML:  html,
		Title: summary.Title,
	}
	commands := BuildCommands(c, summary)
	if len(commands) == 0 {
		// Nothing to push, so the user's cooldown is left untouched.
		log.Debug("no linked trackers; push gate skipped")
		return resp
	}

	res, err := a.gate.Evaluate(ctx, c.AnonID, a.now(), a.cooldown)
	if res.HasHistory {
		age := res.ElapsedMinutes
		resp.Age = &age
	}
	if err != nil {
		resp.Err = err.Error()
		resp.ErrMessage = MsgUserInitFailure
		if errors.Is(err, gate.ErrStoreWriteFailure) {
			resp.ErrMessage = MsgUserSaveFailure
		}
		log.Warn("push gate failed; commands withheld", zap.Error(err))
		return resp
	}

	if res.Granted() {
		resp.Commands = commands
	}
	log.Info("capture processed",
		zap.String("location", loc.Key()),
		zap.String("provider", reading.ProviderName),
		zap.Time("observed_at", reading.Timestamp),
		zap.String("condition", string(reading.Condition)),
		zap.Bool("granted", res.Granted()),
		zap.Bool("contended", res.Contended),
		zap.Int("commands", len(resp.Commands)))
	return resp
}

func errorResponse(err error) Response {
	return Response{
		HTML: "Error happened " + template.HTMLEscapeString(err.Error()),
		Err:  err.Error(),
	}
}
