package weather

import (
	"strconv"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Location is a point given as decimal degrees.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Key returns a canonical string key for logging this location.
func (l Location) Key() string {
	return strconv.FormatFloat(l.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(l.Lon, 'f', 4, 64)
}

// Reading is a single provider observation. Temperatures stay in Kelvin until rendering.
type Reading struct {
	ProviderName string
	Timestamp    time.Time

	// Place is the provider's name for the nearest locality.
	Place string

	Temp    Kelvin
	TempMin Kelvin
	TempMax Kelvin

	HumidityPct float64
	PressureHpa float64

	Condition Condition
	// Description is the provider's short label, e.g. "Clouds".
	Description string
}
