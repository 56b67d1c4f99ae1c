package weather

import (
	"strconv"
	"strings"
)

// Unit is the user's preferred temperature scale. The "celcius" spelling is
// what the app descriptor has always offered.
type Unit string

const (
	Fahrenheit Unit = "fahrenheit"
	Celsius    Unit = "celcius"
)

// ParseUnit maps a user setting to a Unit. Anything that is not Celsius is Fahrenheit.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celcius", "celsius", "c":
		return Celsius
	default:
		return Fahrenheit
	}
}

// Kelvin is an absolute temperature.
type Kelvin float64

// Celsius converts to degrees Celsius.
func (k Kelvin) Celsius() float64 {
	return float64(k) - 273.15
}

// Fahrenheit converts to degrees Fahrenheit.
func (k Kelvin) Fahrenheit() float64 {
	return k.Celsius()*9/5 + 32
}

// In converts to u.
func (k Kelvin) In(u Unit) float64 {
	if u == Celsius {
		return k.Celsius()
	}
	return k.Fahrenheit()
}

// Format converts to u and renders two decimals, e.g. "71.35".
func (k Kelvin) Format(u Unit) string {
	return strconv.FormatFloat(k.In(u), 'f', 2, 64)
}
