package household

import (
	"math/rand"

	"solarshare/internal/model"
)

// Base 24-hour demand shapes in kWh per hour, indexed by household type.
var basePatterns = map[model.HouseholdType][24]float64{
	model.TypeTypical: {
		0.8, 0.6, 0.5, 0.4, 0.4, 0.5,
		0.8, 1.2, 1.0, 0.8, 0.7, 0.6,
		0.8, 0.9, 0.8, 0.7, 0.8, 1.2,
		1.5, 1.8, 1.6, 1.2, 1.0, 0.9,
	},
	model.TypeHighUsage: {
		1.2, 0.9, 0.7, 0.6, 0.6, 0.7,
		1.2, 1.8, 1.5, 1.2, 1.0, 0.9,
		1.2, 1.3, 1.2, 1.0, 1.2, 1.8,
		2.2, 2.6, 2.4, 1.8, 1.5, 1.3,
	},
	model.TypeLowUsage: {
		0.4, 0.3, 0.2, 0.2, 0.2, 0.3,
		0.4, 0.6, 0.5, 0.4, 0.3, 0.3,
		0.4, 0.5, 0.4, 0.3, 0.4, 0.6,
		0.7, 0.9, 0.8, 0.6, 0.5, 0.4,
	},
	model.TypeNightShift: {
		1.0, 1.2, 1.0, 0.8, 0.6, 0.4,
		0.3, 0.4, 0.6, 0.8, 0.7, 0.6,
		0.8, 0.9, 0.8, 0.7, 0.8, 1.0,
		1.2, 1.4, 1.2, 1.0, 0.9, 0.8,
	},
}

var fallbackPattern = [24]float64{
	0.8, 0.8, 0.8, 0.8, 0.8, 0.8,
	0.8, 0.8, 0.8, 0.8, 0.8, 0.8,
	0.8, 0.8, 0.8, 0.8, 0.8, 0.8,
	0.8, 0.8, 0.8, 0.8, 0.8, 0.8,
}

// GeneratePattern returns a 24-hour demand pattern for the household type,
// jittered per household so no two households are identical. Values are
// floored at 0.1 kWh.
func GeneratePattern(t model.HouseholdType, rng *rand.Rand) []float64 {
	base, ok := basePatterns[t]
	if !ok {
		base = fallbackPattern
	}
	pattern := make([]float64, 24)
	for i, v := range base {
		v += -0.2 + rng.Float64()*0.4
		if v < 0.1 {
			v = 0.1
		}
		pattern[i] = v
	}
	return pattern
}

// SampleCommunity builds the default eight-household community used when no
// config file is supplied.
func SampleCommunity(rng *rand.Rand) []model.HouseholdConfig {
	seed := []struct {
		id          string
		solarKW     float64
		batteryKWh  float64
		htype       model.HouseholdType
		orientation model.Orientation
		conscious   bool
		hoarder     bool
	}{
		{"H001", 3.5, 10.0, model.TypeTypical, model.OrientationSouth, false, false},
		{"H002", 4.2, 12.0, model.TypeHighUsage, model.OrientationSouth, false, true},
		{"H003", 2.8, 8.0, model.TypeLowUsage, model.OrientationEast, true, false},
		{"H004", 3.0, 10.0, model.TypeNightShift, model.OrientationWest, false, false},
		{"H005", 4.5, 15.0, model.TypeTypical, model.OrientationSouth, true, false},
		{"H006", 2.5, 7.0, model.TypeLowUsage, model.OrientationEast, true, false},
		{"H007", 3.8, 11.0, model.TypeHighUsage, model.OrientationSouth, false, false},
		{"H008", 3.2, 9.0, model.TypeTypical, model.OrientationWest, false, false},
	}

	configs := make([]model.HouseholdConfig, 0, len(seed))
	for _, s := range seed {
		configs = append(configs, model.HouseholdConfig{
			ID:                  s.id,
			SolarCapacityKW:     s.solarKW,
			BatterySizeKWh:      s.batteryKWh,
			DemandPattern:       GeneratePattern(s.htype, rng),
			InitialBatteryLevel: 0.5,
			Orientation:         s.orientation,
			Type:                s.htype,
			EnergyConscious:     s.conscious,
			EnergyHoarder:       s.hoarder,
		})
	}
	return configs
}
