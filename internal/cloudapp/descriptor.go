package cloudapp

import "strings"

// DefaultPublicURL is where the app is served in production.
const DefaultPublicURL = "https://api.nomie.io/apps/weather"

// Descriptor is the "join" document the tracking app shows before a user installs.
type Descriptor struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Img        string          `json:"img"`
	Summary    string          `json:"summary"`
	Uses       []string        `json:"uses"`
	Color      string          `json:"color"`
	HostedBy   string          `json:"hostedBy"`
	Join       string          `json:"join"`
	More       string          `json:"more"`
	Collection Collection      `json:"collection"`
	Leave      string          `json:"leave"`
	Info       map[string]Info `json:"info"`
	Slots      map[string]Slot `json:"slots"`
}

type Collection struct {
	Method    string `json:"method"`
	Frequency string `json:"frequency"`
	URL       string `json:"url"`
	Amount    string `json:"amount"`
}

// Info is a user-facing setting.
type Info struct {
	Type    string         `json:"type"`
	Value   string         `json:"value"`
	Options []SelectOption `json:"options"`
	Label   string         `json:"label"`
}

// SelectOption is one choice of a select-type Info field.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Slot is a value the app can track into, with the tracker it recommends creating.
type Slot struct {
	Label       string      `json:"label"`
	Summary     *string     `json:"summary"`
	Tracker     *string     `json:"tracker"`
	Required    bool        `json:"required"`
	Recommended Recommended `json:"recommended"`
}

type Recommended struct {
	ID     string        `json:"_id,omitempty"`
	Label  string        `json:"label"`
	Icon   string        `json:"icon"`
	Color  string        `json:"color"`
	LID    string        `json:"lid,omitempty"`
	Charge *int          `json:"charge,omitempty"`
	Config TrackerConfig `json:"config"`
}

type TrackerConfig struct {
	Type          string  `json:"type"`
	UOM           *string `json:"uom"`
	Math          string  `json:"math"`
	DynamicCharge *bool   `json:"dynamicCharge,omitempty"`
	ChargeFunc    []any   `json:"chargeFunc,omitempty"`
	Min           *int    `json:"min,omitempty"`
	Max           *int    `json:"max,omitempty"`
}

// NewDescriptor returns the descriptor with join/leave/collection URLs rooted at publicURL.
func NewDescriptor(publicURL string) Descriptor {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		base = DefaultPublicURL
	}

	celsius := "celsius"
	noCharge := false
	zero, one, ten := 0, 1, 10

	return Descriptor{
		ID:       "io.nomie.apps.weather",
		Name:     "Weather Tracker",
		Img:      "http://snap.icorbin.com/weather-tracking.svg",
		Summary:  "Automatically Track the Temp",
		Uses:     []string{"last-location", "api", "geo", "commands"},
		Color:    "#4A90E2",
		HostedBy: "Brandon Corbin",
		Join:     base,
		More:     "https://nomie.io",
		Collection: Collection{
			Method:    "automatic",
			Frequency: "1d",
			URL:       base,
			Amount:    "1d",
		},
		Leave: base + "/leave",
		Info: map[string]Info{
			"units": {
				Type:  "select",
				Value: "fahrenheit",
				Options: []SelectOption{
					{Label: "Fahrenheit", Value: "fahrenheit"},
					{Label: "Celcius", Value: "celcius"},
				},
				Label: "Unit of Measure",
			},
			"temptype": {
				Type:  "select",
				Value: string(TempMax),
				Options: []SelectOption{
					{Label: "Today's High", Value: string(TempMax)},
					{Label: "Current Temp", Value: string(TempCurrent)},
				},
				Label: "Record",
			},
		},
		Slots: map[string]Slot{
			SlotTemp: {
				Label:    "Temperature",
				Required: true,
				Recommended: Recommended{
					Label: "Temp",
					Icon:  "flaticon-thermometer21",
					Color: "#4A90E2",
					Config: TrackerConfig{
						Type: "numeric",
						UOM:  &celsius,
						Math: "mean",
					},
				},
			},
			SlotHumidity: {
				Label: "Humidity",
				Recommended: Recommended{
					ID:     "humidity",
					Label:  "Humidity",
					Icon:   "weather-snow-cloud",
					Color:  "#064070",
					LID:    "custom.00fvux",
					Charge: &zero,
					Config: TrackerConfig{
						Type:          "numeric",
						Math:          "mean",
						DynamicCharge: &noCharge,
						ChargeFunc:    []any{},
						Min:           &one,
						Max:           &ten,
					},
				},
			},
		},
	}
}
