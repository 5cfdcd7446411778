package metrics

import (
	"fmt"
	"math"

	"solarshare/internal/model"
)

// Grid baseline used to value peer-to-peer trades.
const (
	GridPricePerKWh       = 0.20
	GridEmissionsKgPerKWh = 0.5
)

// HouseholdSample is the slice of household state the metrics need: the
// full-precision SOC and the role at the end of a tick.
type HouseholdSample struct {
	StoredPct float64
	Role      model.Role
}

// TickRecord is one tick's metrics input, as recorded live or reloaded from
// the durable ledger and household-state history.
type TickRecord struct {
	Trades     []model.Trade
	Households []HouseholdSample
}

// Compute folds one tick into the cumulative metrics. The previous metrics
// value is threaded in explicitly; there is no ambient accumulator.
func Compute(prev model.CommunityMetrics, trades []model.Trade, households []*model.Household) model.CommunityMetrics {
	samples := make([]HouseholdSample, len(households))
	for i, h := range households {
		samples[i] = HouseholdSample{StoredPct: h.StoredEnergyPct, Role: h.Role}
	}
	return FromSamples(prev, trades, samples)
}

// FromSamples is Compute over recorded household samples. Replaying a stored
// run through it reproduces the live totals and deltas exactly.
func FromSamples(prev model.CommunityMetrics, trades []model.Trade, samples []HouseholdSample) model.CommunityMetrics {
	var tradedKWh float64
	for _, t := range trades {
		tradedKWh += t.KWh
	}

	cur := model.CommunityMetrics{
		EnergyTradedKWh: prev.EnergyTradedKWh + tradedKWh,
	}
	cur.CostSavings = cur.EnergyTradedKWh * GridPricePerKWh
	cur.CO2ReducedKg = cur.EnergyTradedKWh * GridEmissionsKgPerKWh
	cur.Resilience = resilience(len(trades), samples)

	cur.DeltaEnergy = fmt.Sprintf("%+.1f", cur.EnergyTradedKWh-prev.EnergyTradedKWh)
	cur.DeltaSavings = fmt.Sprintf("%+.1f", cur.CostSavings-prev.CostSavings)
	cur.DeltaCO2 = fmt.Sprintf("%+.1f", cur.CO2ReducedKg-prev.CO2ReducedKg)
	cur.DeltaResilience = fmt.Sprintf("%+.0f", cur.Resilience-prev.Resilience)
	return cur
}

// SamplesFromEntries extracts metrics inputs from published snapshot
// entries, using the full-precision SOC they carry.
func SamplesFromEntries(entries []model.HouseholdEntry) []HouseholdSample {
	samples := make([]HouseholdSample, len(entries))
	for i, e := range entries {
		samples[i] = HouseholdSample{StoredPct: e.StoredPct, Role: e.Role}
	}
	return samples
}

// Replay folds a stored run tick by tick and returns the final metrics.
func Replay(ticks []TickRecord) model.CommunityMetrics {
	var m model.CommunityMetrics
	for _, tick := range ticks {
		m = FromSamples(m, tick.Trades, tick.Households)
	}
	return m
}

// resilience blends average community SOC, trading activity and energy
// independence into a 0-100 score.
func resilience(tradeCount int, samples []HouseholdSample) float64 {
	if len(samples) == 0 {
		return 0
	}

	var storedSum float64
	var buyers int
	for _, s := range samples {
		storedSum += s.StoredPct
		if s.Role == model.RoleBuyer {
			buyers++
		}
	}
	avgStored := storedSum / float64(len(samples))

	activity := math.Min(1, float64(tradeCount)/5)
	independence := 1 - float64(buyers)/float64(len(samples))

	score := avgStored*0.5 + activity*30 + independence*20
	return math.Min(100, math.Max(0, score))
}
