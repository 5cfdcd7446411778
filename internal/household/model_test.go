package household

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarshare/internal/model"
)

func flatPattern(kwh float64) []float64 {
	p := make([]float64, 24)
	for i := range p {
		p[i] = kwh
	}
	return p
}

func makeHousehold(id string, batteryKWh, storedPct float64) *model.Household {
	h := model.NewHousehold(model.HouseholdConfig{
		ID:              id,
		SolarCapacityKW: 4,
		BatterySizeKWh:  batteryKWh,
		DemandPattern:   flatPattern(1),
		Orientation:     model.OrientationSouth,
		Type:            model.TypeTypical,
	})
	h.StoredEnergyPct = storedPct
	return h
}

func TestRoleFor(t *testing.T) {
	tests := []struct {
		name      string
		storedPct float64
		net       float64
		want      model.Role
	}{
		{"depleted with deficit", 15, -2.0, model.RoleBuyer},
		{"above reserve balanced", 35, 0, model.RoleSeller},
		{"charged with surplus", 80, 1.5, model.RoleSeller},
		{"just above reserve with surplus", 25, 1.5, model.RoleSeller},
		{"just above reserve balanced", 22, 0, model.RoleSeller},
		{"at reserve balanced", 20, 0, model.RoleIdle},
		{"at reserve with deficit", 20, -1, model.RoleBuyer},
		{"full with deficit", 100, -1, model.RoleSeller},
		{"empty balanced", 0, 0, model.RoleIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleFor(tt.storedPct, tt.net, 20))
		})
	}
}

func TestModel_FinalizeChargesSurplus(t *testing.T) {
	m := NewModel(20, rand.New(rand.NewSource(1)))
	h := makeHousehold("H001", 10, 50)
	h.SolarKW = 3
	h.DemandKW = 1

	require.NoError(t, m.Finalize(h))
	assert.InDelta(t, 2.0, h.NetEnergyKW, 1e-9)
	assert.InDelta(t, 70, h.StoredEnergyPct, 1e-9) // +2 kWh of 10 kWh
	assert.Equal(t, model.RoleSeller, h.Role)
	assert.InDelta(t, 3, h.TotalGeneratedKWh, 1e-9)
	assert.InDelta(t, 1, h.TotalConsumedKWh, 1e-9)
}

func TestModel_FinalizeCurtailsAtFullBattery(t *testing.T) {
	m := NewModel(20, rand.New(rand.NewSource(1)))
	h := makeHousehold("H001", 10, 95)
	h.SolarKW = 4
	h.DemandKW = 1

	require.NoError(t, m.Finalize(h))
	// Only 0.5 kWh of headroom; the rest of the 3 kWh surplus is curtailed.
	assert.InDelta(t, 100, h.StoredEnergyPct, 1e-9)
}

func TestModel_FinalizeDrawsDeficit(t *testing.T) {
	m := NewModel(20, rand.New(rand.NewSource(1)))
	h := makeHousehold("H001", 10, 50)
	h.SolarKW = 0
	h.DemandKW = 2

	require.NoError(t, m.Finalize(h))
	assert.InDelta(t, 30, h.StoredEnergyPct, 1e-9)
	assert.Equal(t, model.RoleSeller, h.Role)
}

func TestModel_FinalizeDrawStopsAtEmpty(t *testing.T) {
	m := NewModel(20, rand.New(rand.NewSource(1)))
	h := makeHousehold("H001", 10, 10)
	h.SolarKW = 0
	h.DemandKW = 5 // only 1 kWh stored

	require.NoError(t, m.Finalize(h))
	assert.InDelta(t, 0, h.StoredEnergyPct, 1e-9)
	assert.Equal(t, model.RoleBuyer, h.Role)
}

func TestModel_SolarGeneration(t *testing.T) {
	m := NewModel(20, rand.New(rand.NewSource(1)))
	w := model.WeatherState{TempC: 22, CloudsPct: 0, SolarRadiation: 660, HumidityPct: 50}

	t.Run("zero at night", func(t *testing.T) {
		h := makeHousehold("H001", 10, 50)
		m.ComputeRaw(h, 2, w, nil)
		assert.Zero(t, h.SolarKW)
	})

	t.Run("peaks at noon", func(t *testing.T) {
		h := makeHousehold("H001", 10, 50)
		m.ComputeRaw(h, 12, w, nil)
		// No clouds, radiation boost capped at 1.1: 4 * 1 * 1.1.
		assert.InDelta(t, 4.4, h.SolarKW, 1e-9)
	})

	t.Run("orientation scales output", func(t *testing.T) {
		south := makeHousehold("H001", 10, 50)
		north := makeHousehold("H002", 10, 50)
		north.Config.Orientation = model.OrientationNorth

		m.ComputeRaw(south, 12, w, nil)
		m.ComputeRaw(north, 12, w, nil)
		assert.InDelta(t, south.SolarKW*0.6, north.SolarKW, 1e-9)
	})

	t.Run("weather factor floored", func(t *testing.T) {
		h := makeHousehold("H001", 10, 50)
		overcast := model.WeatherState{TempC: 22, CloudsPct: 100, SolarRadiation: 100, HumidityPct: 50}
		m.ComputeRaw(h, 12, overcast, nil)
		assert.InDelta(t, 4*0.4, h.SolarKW, 1e-9)
	})

	t.Run("crisis reduces output", func(t *testing.T) {
		clear, reduced := makeHousehold("H001", 10, 50), makeHousehold("H002", 10, 50)
		crisis := &model.CrisisEvent{
			DemandMultiplier: 1.8,
			SolarReduction:   0.5,
			StartHour:        10,
			EndHour:          16,
			Active:           true,
		}
		m.ComputeRaw(clear, 12, w, nil)
		m.ComputeRaw(reduced, 12, w, crisis)
		assert.InDelta(t, clear.SolarKW*0.5, reduced.SolarKW, 1e-9)
	})
}

func TestDemandFactors(t *testing.T) {
	m := NewModel(20, rand.New(rand.NewSource(1)))

	t.Run("mild weather is baseline", func(t *testing.T) {
		h := makeHousehold("H001", 10, 50)
		w := model.WeatherState{TempC: 22, CloudsPct: 30, SolarRadiation: 0, HumidityPct: 50}
		m.ComputeRaw(h, 3, w, nil)
		assert.InDelta(t, 1.0, h.DemandKW, 1e-9)
	})

	t.Run("heat raises demand", func(t *testing.T) {
		h := makeHousehold("H001", 10, 50)
		w := model.WeatherState{TempC: 32, CloudsPct: 30, SolarRadiation: 0, HumidityPct: 50}
		m.ComputeRaw(h, 3, w, nil)
		assert.InDelta(t, 1.15, h.DemandKW, 1e-9)
	})

	t.Run("humidity adds 10 percent", func(t *testing.T) {
		h := makeHousehold("H001", 10, 50)
		w := model.WeatherState{TempC: 22, CloudsPct: 30, SolarRadiation: 0, HumidityPct: 75}
		m.ComputeRaw(h, 3, w, nil)
		assert.InDelta(t, 1.1, h.DemandKW, 1e-9)
	})

	t.Run("crisis multiplies demand in window", func(t *testing.T) {
		h := makeHousehold("H001", 10, 50)
		w := model.WeatherState{TempC: 22, CloudsPct: 30, SolarRadiation: 0, HumidityPct: 50}
		crisis := &model.CrisisEvent{DemandMultiplier: 1.8, SolarReduction: 0.5, StartHour: 2, EndHour: 6, Active: true}
		m.ComputeRaw(h, 3, w, crisis)
		assert.InDelta(t, 1.8, h.DemandKW, 1e-9)
	})

	t.Run("crisis inert outside window", func(t *testing.T) {
		h := makeHousehold("H001", 10, 50)
		w := model.WeatherState{TempC: 22, CloudsPct: 30, SolarRadiation: 0, HumidityPct: 50}
		crisis := &model.CrisisEvent{DemandMultiplier: 1.8, SolarReduction: 0.5, StartHour: 10, EndHour: 16, Active: true}
		m.ComputeRaw(h, 3, w, crisis)
		assert.InDelta(t, 1.0, h.DemandKW, 1e-9)
	})
}

func TestAdjustDemand(t *testing.T) {
	setup := func() []*model.Household {
		hh := make([]*model.Household, 4)
		for i, demand := range []float64{3, 2, 1, 0.5} {
			hh[i] = makeHousehold(string(rune('A'+i)), 10, 50)
			hh[i].DemandKW = demand
		}
		return hh
	}

	t.Run("no sellers cuts conscious high demanders", func(t *testing.T) {
		hh := setup()
		hh[0].Config.EnergyConscious = true
		hh[1].Config.EnergyConscious = true
		hh[2].Config.EnergyConscious = true
		for _, h := range hh {
			h.Role = model.RoleBuyer
		}

		AdjustDemand(hh)
		assert.InDelta(t, 3*0.85, hh[0].DemandKW, 1e-9)
		assert.InDelta(t, 2*0.85, hh[1].DemandKW, 1e-9)
		assert.InDelta(t, 1.0, hh[2].DemandKW, 1e-9) // not among the top two
	})

	t.Run("unconscious high demanders keep demand", func(t *testing.T) {
		hh := setup()
		for _, h := range hh {
			h.Role = model.RoleBuyer
		}

		AdjustDemand(hh)
		assert.InDelta(t, 3.0, hh[0].DemandKW, 1e-9)
	})

	t.Run("hoarders are never picked", func(t *testing.T) {
		hh := setup()
		hh[0].Config.EnergyHoarder = true
		hh[1].Config.EnergyConscious = true
		hh[2].Config.EnergyConscious = true
		for _, h := range hh {
			h.Role = model.RoleBuyer
		}

		AdjustDemand(hh)
		assert.InDelta(t, 3.0, hh[0].DemandKW, 1e-9)
		assert.InDelta(t, 2*0.85, hh[1].DemandKW, 1e-9)
		assert.InDelta(t, 1*0.85, hh[2].DemandKW, 1e-9)
	})

	t.Run("no buyers raises low demanders", func(t *testing.T) {
		hh := setup()
		for _, h := range hh {
			h.Role = model.RoleSeller
		}

		AdjustDemand(hh)
		assert.InDelta(t, 0.5*1.10, hh[3].DemandKW, 1e-9)
		assert.InDelta(t, 1*1.10, hh[2].DemandKW, 1e-9)
		assert.InDelta(t, 3.0, hh[0].DemandKW, 1e-9)
	})

	t.Run("mixed market untouched", func(t *testing.T) {
		hh := setup()
		hh[0].Role = model.RoleSeller
		hh[1].Role = model.RoleBuyer

		AdjustDemand(hh)
		for i, demand := range []float64{3, 2, 1, 0.5} {
			assert.InDelta(t, demand, hh[i].DemandKW, 1e-9)
		}
	})
}

func TestCheckSOC(t *testing.T) {
	t.Run("clamps rounding noise", func(t *testing.T) {
		h := makeHousehold("H001", 10, 100+1e-12)
		require.NoError(t, checkSOC(h))
		assert.Equal(t, 100.0, h.StoredEnergyPct)
	})

	t.Run("rejects real overflow", func(t *testing.T) {
		h := makeHousehold("H001", 10, 105)
		err := checkSOC(h)
		var inv *model.InvariantError
		require.ErrorAs(t, err, &inv)
		assert.Equal(t, "H001", inv.HouseholdID)
	})
}
