package model

import "time"

// WeatherState is one weather sample. Produced fresh each tick and immutable
// once created.
type WeatherState struct {
	Timestamp      time.Time `json:"-"`
	TempC          float64   `json:"temp"`
	CloudsPct      float64   `json:"clouds"`
	SolarRadiation float64   `json:"solar_radiation"`
	HumidityPct    float64   `json:"humidity"`
}

// DefaultWeather returns the documented fallback sample used when weather
// input for a tick is missing or malformed.
func DefaultWeather(ts time.Time) WeatherState {
	return WeatherState{
		Timestamp:      ts,
		TempC:          22.5,
		CloudsPct:      30,
		SolarRadiation: 0,
		HumidityPct:    65,
	}
}

// Valid reports whether the sample respects the documented ranges. A sample
// failing this check is treated as a data gap, not an error.
func (w WeatherState) Valid() bool {
	return w.CloudsPct >= 10 && w.CloudsPct <= 60 &&
		w.HumidityPct >= 40 && w.HumidityPct <= 80 &&
		w.SolarRadiation >= 0
}

// CrisisEvent is a time-boxed multiplicative perturbation to demand (up)
// and solar generation (down). At most one crisis is active at a time.
type CrisisEvent struct {
	DemandMultiplier float64 `json:"demand_multiplier"`
	SolarReduction   float64 `json:"solar_reduction"`
	DurationHours    int     `json:"duration"`
	StartHour        int     `json:"start_hour"`
	EndHour          int     `json:"end_hour"`
	Active           bool    `json:"active"`
}

// ActiveAt reports whether the crisis perturbs the given hour of day.
// Nil-safe so callers can pass through an absent crisis.
func (c *CrisisEvent) ActiveAt(hour int) bool {
	if c == nil || !c.Active {
		return false
	}
	return hour >= c.StartHour && hour < c.EndHour
}

// DemandFactor returns the demand multiplier for the given hour (1 when no
// crisis applies).
func (c *CrisisEvent) DemandFactor(hour int) float64 {
	if !c.ActiveAt(hour) {
		return 1
	}
	return c.DemandMultiplier
}

// SolarFactor returns the solar multiplier for the given hour (1 when no
// crisis applies).
func (c *CrisisEvent) SolarFactor(hour int) float64 {
	if !c.ActiveAt(hour) {
		return 1
	}
	return 1 - c.SolarReduction
}
