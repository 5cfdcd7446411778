package household

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"solarshare/internal/model"
)

// socEpsilon absorbs float rounding in SOC arithmetic. Anything further
// outside [0, 100] is an accounting bug, not noise.
const socEpsilon = 1e-9

// Model computes per-tick solar generation, demand, battery transition and
// role for households. Randomized terms (cloud impact draws) come from the
// injected source.
type Model struct {
	reservePct float64
	rng        *rand.Rand
}

func NewModel(reservePct float64, rng *rand.Rand) *Model {
	return &Model{reservePct: reservePct, rng: rng}
}

// ComputeRaw fills in the household's solar generation and raw demand for
// the hour. Net energy, battery and role are settled later, after the
// community-wide demand adjustment.
func (m *Model) ComputeRaw(h *model.Household, hour int, w model.WeatherState, crisis *model.CrisisEvent) {
	h.SolarKW = m.solarGeneration(h, hour, w, crisis)
	h.DemandKW = demand(h, hour, w, crisis)
}

// AdjustDemand applies the community-wide behavioral adjustment between the
// raw demand pass and the battery update. It observes the roles left over
// from the previous tick, the only roles that exist at this point.
//
// Zero sellers with at least one buyer: the two highest-demand non-hoarder
// households cut demand 15% if they are energy conscious. Zero buyers with
// at least one seller: the two lowest-demand non-hoarders raise demand 10%.
func AdjustDemand(households []*model.Household) {
	var sellers, buyers int
	for _, h := range households {
		switch h.Role {
		case model.RoleSeller:
			sellers++
		case model.RoleBuyer:
			buyers++
		}
	}

	switch {
	case sellers == 0 && buyers >= 1:
		for _, h := range pickByDemand(households, 2, true) {
			if h.Config.EnergyConscious {
				h.DemandKW *= 0.85
			}
		}
	case buyers == 0 && sellers >= 1:
		for _, h := range pickByDemand(households, 2, false) {
			h.DemandKW *= 1.10
		}
	}
}

// pickByDemand returns up to n non-hoarder households ordered by demand,
// highest first when desc is set. The sort is stable so equal-demand
// households keep their registration order.
func pickByDemand(households []*model.Household, n int, desc bool) []*model.Household {
	candidates := make([]*model.Household, 0, len(households))
	for _, h := range households {
		if !h.Config.EnergyHoarder {
			candidates = append(candidates, h)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if desc {
			return candidates[i].DemandKW > candidates[j].DemandKW
		}
		return candidates[i].DemandKW < candidates[j].DemandKW
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// Finalize settles the household for the tick: net energy, battery state
// transition and role. Trading happens afterward, from the resulting stored
// percentage, so any deficit left after the battery draw stays unmet here.
func (m *Model) Finalize(h *model.Household) error {
	h.NetEnergyKW = h.SolarKW - h.DemandKW

	size := h.Config.BatterySizeKWh
	if h.NetEnergyKW > 0 {
		// Surplus beyond the battery headroom is curtailed, not carried.
		stored := math.Min(h.NetEnergyKW, h.HeadroomKWh())
		h.StoredEnergyPct += stored / size * 100
	} else if h.NetEnergyKW < 0 {
		drawn := math.Min(-h.NetEnergyKW, h.StoredKWh())
		h.StoredEnergyPct -= drawn / size * 100
	}

	if err := checkSOC(h); err != nil {
		return err
	}

	h.Role = RoleFor(h.StoredEnergyPct, h.NetEnergyKW, m.reservePct)

	h.TotalGeneratedKWh += h.SolarKW
	h.TotalConsumedKWh += h.DemandKW
	return nil
}

// RoleFor evaluates the role state machine. The conditions are ordered and
// the first match wins: a household above the reserve is a seller even when
// it is running a deficit.
func RoleFor(storedPct, netEnergy, reservePct float64) model.Role {
	switch {
	case storedPct > reservePct:
		return model.RoleSeller
	case netEnergy < 0 && storedPct < 100:
		return model.RoleBuyer
	default:
		return model.RoleIdle
	}
}

// checkSOC clamps rounding noise and rejects anything further out of range.
func checkSOC(h *model.Household) error {
	pct := h.StoredEnergyPct
	if pct < -socEpsilon || pct > 100+socEpsilon {
		return &model.InvariantError{
			HouseholdID: h.Config.ID,
			Detail:      fmt.Sprintf("stored energy %.6f%% outside [0, 100]", pct),
		}
	}
	if pct < 0 {
		h.StoredEnergyPct = 0
	} else if pct > 100 {
		h.StoredEnergyPct = 100
	}
	return nil
}

func (m *Model) solarGeneration(h *model.Household, hour int, w model.WeatherState, crisis *model.CrisisEvent) float64 {
	timeFactor := math.Max(0, 1-math.Abs(12-float64(hour))/6)

	cloudImpact := 0.6 + m.rng.Float64()*0.2
	radiationBoost := math.Min(1.1, w.SolarRadiation/600)
	weatherFactor := math.Max(0.4, (1-w.CloudsPct/100*cloudImpact)*radiationBoost)

	return h.Config.SolarCapacityKW * timeFactor * weatherFactor *
		h.Config.Orientation.Factor() * crisis.SolarFactor(hour)
}

func demand(h *model.Household, hour int, w model.WeatherState, crisis *model.CrisisEvent) float64 {
	base := h.Config.DemandPattern[hour]

	tempFactor := 1 + math.Abs(w.TempC-22)*0.015
	humidityFactor := 1.0
	if w.HumidityPct > 70 {
		humidityFactor = 1.1
	}

	return base * tempFactor * humidityFactor * crisis.DemandFactor(hour)
}
