package cloudapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-tracker/internal/weather"
)

var validate = validator.New()

// ErrNoLocation is the error shown when the location cannot be used for a lookup.
var ErrNoLocation = errors.New("No location data available")

// Slot names the app tracks into.
const (
	SlotTemp     = "temp"
	SlotHumidity = "humidity"
	SlotPressure = "pressure"
)

// TempType picks which temperature is recorded.
type TempType string

const (
	TempMax     TempType = "temp-max"
	TempCurrent TempType = "temp"
)

// Capture is the event posted when the app runs for a user.
type Capture struct {
	AnonID     string     `json:"anonid"`
	Experiment Experiment `json:"experiment"`
}

type Experiment struct {
	// Location is [lat, lon]. Numbers may arrive quoted.
	Location []json.Number     `json:"location"`
	Info     ExperimentInfo    `json:"info"`
	Slots    map[string]SlotIn `json:"slots"`
}

type ExperimentInfo struct {
	Units    Setting `json:"units"`
	TempType Setting `json:"temptype"`
}

type Setting struct {
	Value string `json:"value"`
}

// SlotIn is a slot as sent back by the app; Tracker is nil when the user has not linked one.
type SlotIn struct {
	Tracker *Tracker `json:"tracker"`
}

type Tracker struct {
	Label string `json:"label"`
}

// ParseCapture decodes a request body and applies defaults.
func ParseCapture(body []byte) (Capture, error) {
	var c Capture
	if len(strings.TrimSpace(string(body))) == 0 {
		c.Normalize()
		return c, nil
	}
	if err := json.Unmarshal(body, &c); err != nil {
		return Capture{}, fmt.Errorf("invalid capture payload: %w", err)
	}
	c.Normalize()
	return c, nil
}

// Normalize fills defaults once so later code never checks for absent sections.
func (c *Capture) Normalize() {
	c.AnonID = strings.TrimSpace(c.AnonID)
	c.Experiment.Info.Units.Value = string(weather.ParseUnit(c.Experiment.Info.Units.Value))
	if TempType(c.Experiment.Info.TempType.Value) != TempMax {
		c.Experiment.Info.TempType.Value = string(TempCurrent)
	}
	if c.Experiment.Slots == nil {
		c.Experiment.Slots = make(map[string]SlotIn)
	}
}

// HasLocation reports whether the app sent any location at all.
func (c Capture) HasLocation() bool {
	return len(c.Experiment.Location) > 0
}

// Location parses and range-checks the [lat, lon] pair.
func (c Capture) Location() (weather.Location, error) {
	if len(c.Experiment.Location) != 2 {
		return weather.Location{}, ErrNoLocation
	}
	lat, err := c.Experiment.Location[0].Float64()
	if err != nil {
		return weather.Location{}, ErrNoLocation
	}
	lon, err := c.Experiment.Location[1].Float64()
	if err != nil {
		return weather.Location{}, ErrNoLocation
	}

	loc := weather.Location{Lat: lat, Lon: lon}
	if err := validate.Struct(loc); err != nil {
		return weather.Location{}, fmt.Errorf("%w: %v", ErrNoLocation, err)
	}
	return loc, nil
}

func (c Capture) Unit() weather.Unit {
	return weather.Unit(c.Experiment.Info.Units.Value)
}

func (c Capture) TempType() TempType {
	return TempType(c.Experiment.Info.TempType.Value)
}

// TrackerLabel returns the label of the tracker linked to slot.
func (c Capture) TrackerLabel(slot string) (string, bool) {
	s, ok := c.Experiment.Slots[slot]
	if !ok || s.Tracker == nil || s.Tracker.Label == "" {
		return "", false
	}
	return s.Tracker.Label, true
}
