package config

import (
	"encoding/json"
	"fmt"
	"os"

	"solarshare/internal/model"
)

// ValidationError names the configuration field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Reason)
}

// TradingConfig holds the market parameters.
type TradingConfig struct {
	MinimumReservePct float64 `json:"minimum_reserve_percentage"`
	MinPrice          float64 `json:"min_price"`
	MaxPrice          float64 `json:"max_price"`
	MaxTradingRounds  int     `json:"max_trading_rounds"`
	MaxTradeSizeFirst float64 `json:"max_trade_size_first"`
	MinTradeSize      float64 `json:"min_trade_size"`
}

// WeatherConfig holds the weather generator and heatwave parameters.
// The heatwave fields bound the random crisis sampling: multiplier is drawn
// from [1.5, HeatwaveDemandMultiplier], reduction from
// [0.3, HeatwaveSolarReduction], duration from
// [HeatwaveMinDuration, HeatwaveMinDuration+3] hours.
type WeatherConfig struct {
	TempMean                 float64 `json:"temp_mean"`
	MaxSolarRadiation        float64 `json:"max_solar_radiation"`
	CloudsBase               float64 `json:"clouds_base"`
	HeatwaveDemandMultiplier float64 `json:"heatwave_demand_multiplier"`
	HeatwaveSolarReduction   float64 `json:"heatwave_solar_reduction"`
	HeatwaveMinDuration      int     `json:"heatwave_min_duration"`
	CrisisProbability        float64 `json:"crisis_probability"`
}

// SpeedConfig carries pacing hints for the host scheduler. The core tick
// formulas never consume these.
type SpeedConfig struct {
	FastForwardNights bool `json:"fast_forward_nights"`
	SlowDownDays      bool `json:"slow_down_days"`
}

// Config is the full simulation configuration.
type Config struct {
	Households []model.HouseholdConfig `json:"households"`
	Trading    TradingConfig           `json:"trading"`
	Weather    WeatherConfig           `json:"weather"`
	Speed      SpeedConfig             `json:"speed"`
	Seed       int64                   `json:"seed"`
}

// Default returns the documented default configuration (no households).
func Default() Config {
	return Config{
		Trading: TradingConfig{
			MinimumReservePct: 20,
			MinPrice:          0.10,
			MaxPrice:          0.20,
			MaxTradingRounds:  3,
			MaxTradeSizeFirst: 2.0,
			MinTradeSize:      0.05,
		},
		Weather: WeatherConfig{
			TempMean:                 22.5,
			MaxSolarRadiation:        1000,
			CloudsBase:               30,
			HeatwaveDemandMultiplier: 1.8,
			HeatwaveSolarReduction:   0.5,
			HeatwaveMinDuration:      3,
			CrisisProbability:        0.05,
		},
		Seed: 1,
	}
}

// Load reads and validates a JSON config file. Unset trading/weather fields
// fall back to defaults before validation.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate fails fast on the first invalid field. A household is never
// partially constructed from an invalid config.
func (c *Config) Validate() error {
	for i := range c.Households {
		if err := ValidateHousehold(&c.Households[i]); err != nil {
			return err
		}
	}
	t := c.Trading
	if t.MinimumReservePct < 0 || t.MinimumReservePct >= 100 {
		return &ValidationError{"trading.minimum_reserve_percentage", "must be in [0, 100)"}
	}
	if t.MinPrice <= 0 {
		return &ValidationError{"trading.min_price", "must be positive"}
	}
	if t.MaxPrice < t.MinPrice {
		return &ValidationError{"trading.max_price", "must be >= min_price"}
	}
	if t.MaxTradingRounds < 1 {
		return &ValidationError{"trading.max_trading_rounds", "must be at least 1"}
	}
	if t.MaxTradeSizeFirst <= 0 {
		return &ValidationError{"trading.max_trade_size_first", "must be positive"}
	}
	if t.MinTradeSize <= 0 {
		return &ValidationError{"trading.min_trade_size", "must be positive"}
	}
	w := c.Weather
	if w.MaxSolarRadiation <= 0 {
		return &ValidationError{"weather.max_solar_radiation", "must be positive"}
	}
	if w.CloudsBase < 10 || w.CloudsBase > 60 {
		return &ValidationError{"weather.clouds_base", "must be in [10, 60]"}
	}
	if w.HeatwaveDemandMultiplier < 1.5 {
		return &ValidationError{"weather.heatwave_demand_multiplier", "must be at least 1.5"}
	}
	if w.HeatwaveSolarReduction < 0.3 || w.HeatwaveSolarReduction > 1 {
		return &ValidationError{"weather.heatwave_solar_reduction", "must be in [0.3, 1]"}
	}
	if w.HeatwaveMinDuration < 1 {
		return &ValidationError{"weather.heatwave_min_duration", "must be at least 1 hour"}
	}
	if w.CrisisProbability < 0 || w.CrisisProbability > 1 {
		return &ValidationError{"weather.crisis_probability", "must be in [0, 1]"}
	}
	return nil
}

// ValidateHousehold checks a single household config.
func ValidateHousehold(h *model.HouseholdConfig) error {
	if h.ID == "" {
		return &ValidationError{"household.id", "must not be empty"}
	}
	if h.SolarCapacityKW <= 0 {
		return &ValidationError{"household.solar_capacity", "must be positive"}
	}
	if h.BatterySizeKWh <= 0 {
		return &ValidationError{"household.battery_size", "must be positive"}
	}
	if h.InitialBatteryLevel < 0 || h.InitialBatteryLevel > 1 {
		return &ValidationError{"household.initial_battery_level", "must be in [0, 1]"}
	}
	if h.Orientation != "" && !h.Orientation.Valid() {
		return &ValidationError{"household.orientation", "must be south, east, west or north"}
	}
	if h.Type != "" && !h.Type.Valid() {
		return &ValidationError{"household.household_type", "unknown household type"}
	}
	if len(h.DemandPattern) != 0 && len(h.DemandPattern) != 24 {
		return &ValidationError{"household.demand_pattern", "must contain exactly 24 hourly values"}
	}
	return nil
}
