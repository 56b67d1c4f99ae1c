package cloudapp

import (
	"bytes"
	"embed"
	"html/template"
	"strconv"

	"github.com/i474232898/weather-tracker/internal/weather"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Summary is the reading converted to the user's unit, ready for display and tracking.
type Summary struct {
	Title       string
	Description string

	// Condition selects the card's styling, e.g. "rain".
	Condition weather.Condition

	Current string
	Low     string
	High    string

	Humidity string
	Pressure string
}

// Summarize converts a reading for display in unit u.
func Summarize(r weather.Reading, u weather.Unit) Summary {
	cond := r.Condition
	if cond == "" {
		cond = weather.ConditionUnknown
	}
	desc := r.Description
	if desc == "" && cond != weather.ConditionUnknown {
		desc = string(cond)
	}
	return Summary{
		Title:       r.Place + " Weather",
		Description: desc,
		Condition:   cond,
		Current:     r.Temp.Format(u),
		Low:         r.TempMin.Format(u),
		High:        r.TempMax.Format(u),
		Humidity:    formatNumber(r.HumidityPct),
		Pressure:    formatNumber(r.PressureHpa),
	}
}

// RecordedTemp is the temperature that goes into the temp tracker.
func (s Summary) RecordedTemp(tt TempType) string {
	if tt == TempMax {
		return s.High
	}
	return s.Current
}

// RenderSummary renders the weather card.
func RenderSummary(s Summary) (string, error) {
	return render("summary.html", s)
}

var noLocationHTML = mustRender("no_location.html", nil)

// RenderNoLocation returns the message shown before the user has a known location.
func RenderNoLocation() string {
	return noLocationHTML
}

func mustRender(name string, data any) string {
	out, err := render(name, data)
	if err != nil {
		panic(err)
	}
	return out
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatNumber prints integers without a fraction, like the provider sends them.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
