package market

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarshare/internal/config"
	"solarshare/internal/model"
)

var tickTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func tradingConfig() config.TradingConfig {
	return config.Default().Trading
}

func seller(id string, batteryKWh, storedPct float64) *model.Household {
	h := model.NewHousehold(model.HouseholdConfig{
		ID:              id,
		SolarCapacityKW: 4,
		BatterySizeKWh:  batteryKWh,
	})
	h.StoredEnergyPct = storedPct
	h.Role = model.RoleSeller
	return h
}

func buyerH(id string, batteryKWh, storedPct, deficit float64) *model.Household {
	h := model.NewHousehold(model.HouseholdConfig{
		ID:              id,
		SolarCapacityKW: 4,
		BatterySizeKWh:  batteryKWh,
	})
	h.StoredEnergyPct = storedPct
	h.NetEnergyKW = -deficit
	h.Role = model.RoleBuyer
	return h
}

func TestEngine_TickPrice(t *testing.T) {
	e := New(tradingConfig())

	assert.Equal(t, 0.10, e.tickPrice(1.6))
	assert.Equal(t, 0.15, e.tickPrice(1.0))
	assert.Equal(t, 0.15, e.tickPrice(1.5)) // boundary stays mid
	assert.Equal(t, 0.20, e.tickPrice(0.8)) // boundary stays max
	assert.Equal(t, 0.20, e.tickPrice(0.5))
}

func TestEngine_MatchNoParticipants(t *testing.T) {
	e := New(tradingConfig())

	t.Run("no sellers", func(t *testing.T) {
		trades, err := e.Match([]*model.Household{buyerH("B1", 10, 10, 2)}, tickTime)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})

	t.Run("no buyers", func(t *testing.T) {
		trades, err := e.Match([]*model.Household{seller("S1", 10, 80)}, tickTime)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})

	t.Run("zero demand", func(t *testing.T) {
		hh := []*model.Household{seller("S1", 10, 80), buyerH("B1", 10, 10, 0)}
		trades, err := e.Match(hh, tickTime)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})
}

func TestEngine_MatchSimplePair(t *testing.T) {
	e := New(tradingConfig())

	s := seller("S1", 10, 80) // 6 kWh above reserve
	b := buyerH("B1", 10, 10, 2)

	trades, err := e.Match([]*model.Household{s, b}, tickTime)
	require.NoError(t, err)
	require.NotEmpty(t, trades)

	// Supply 6, demand 2, ratio 3 > 1.5: floor price.
	for _, tr := range trades {
		assert.Equal(t, "S1", tr.SellerID)
		assert.Equal(t, "B1", tr.BuyerID)
		assert.Equal(t, 0.10, tr.Price)
		assert.Equal(t, tickTime, tr.Timestamp)
		assert.NotEqual(t, tr.ID.String(), "00000000-0000-0000-0000-000000000000")
	}

	var total float64
	for _, tr := range trades {
		total += tr.KWh
	}
	assert.LessOrEqual(t, total, 2.0+1e-9)
	assert.InDelta(t, total, s.TotalTradedKWh, 1e-9)
	assert.InDelta(t, total, b.TotalTradedKWh, 1e-9)
	assert.GreaterOrEqual(t, s.StoredEnergyPct, 20.0)
	assert.LessOrEqual(t, b.StoredEnergyPct, 100.0)
}

func TestEngine_MatchFirstRoundCap(t *testing.T) {
	e := New(tradingConfig())

	s := seller("S1", 100, 80) // 60 kWh above reserve
	b := buyerH("B1", 100, 10, 10)

	trades, err := e.Match([]*model.Household{s, b}, tickTime)
	require.NoError(t, err)
	require.NotEmpty(t, trades)

	// Round one is capped at the 2 kWh block size.
	assert.LessOrEqual(t, trades[0].KWh, 2.0+1e-9)
}

func TestEngine_MatchRespectsMinTradeSize(t *testing.T) {
	e := New(tradingConfig())

	// 0.3 kWh above reserve; round cap 0.6*0.3=0.18, still above the 0.05
	// minimum, but a buyer with almost no headroom blocks the trade.
	s := seller("S1", 10, 23)
	b := buyerH("B1", 10, 99.9, 2) // 0.01 kWh headroom

	trades, err := e.Match([]*model.Household{s, b}, tickTime)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, 23.0, s.StoredEnergyPct)
	assert.Equal(t, 99.9, b.StoredEnergyPct)
}

func TestEngine_MatchSellerNeverBelowReserve(t *testing.T) {
	e := New(tradingConfig())

	s := seller("S1", 10, 30) // 1 kWh above reserve
	buyers := []*model.Household{
		buyerH("B1", 10, 5, 3),
		buyerH("B2", 10, 8, 3),
	}

	trades, err := e.Match(append([]*model.Household{s}, buyers...), tickTime)
	require.NoError(t, err)

	var total float64
	for _, tr := range trades {
		total += tr.KWh
	}
	assert.LessOrEqual(t, total, 1.0+1e-9)
	assert.GreaterOrEqual(t, s.StoredEnergyPct, 20.0-1e-9)
}

func TestEngine_MatchBuyerNeverAbove100(t *testing.T) {
	e := New(tradingConfig())

	s := seller("S1", 20, 90)
	b := buyerH("B1", 10, 95, 4) // only 0.5 kWh headroom

	trades, err := e.Match([]*model.Household{s, b}, tickTime)
	require.NoError(t, err)

	assert.LessOrEqual(t, b.StoredEnergyPct, 100.0)
	var total float64
	for _, tr := range trades {
		total += tr.KWh
	}
	assert.LessOrEqual(t, total, 0.5+1e-9)
}

func TestEngine_MatchPriorities(t *testing.T) {
	e := New(tradingConfig())

	// The emptier buyer is served before the fuller one.
	s := seller("S1", 10, 80)
	low := buyerH("B-low", 10, 5, 1)
	high := buyerH("B-high", 10, 15, 1)

	trades, err := e.Match([]*model.Household{high, s, low}, tickTime)
	require.NoError(t, err)
	require.NotEmpty(t, trades)
	assert.Equal(t, "B-low", trades[0].BuyerID)
}

func TestEngine_MatchDeterministic(t *testing.T) {
	run := func() []model.Trade {
		e := New(tradingConfig())
		hh := []*model.Household{
			seller("S1", 12, 70),
			seller("S2", 10, 90),
			buyerH("B1", 10, 10, 2.5),
			buyerH("B2", 8, 15, 1.5),
		}
		trades, err := e.Match(hh, tickTime)
		require.NoError(t, err)
		return trades
	}

	a, b := run(), run()
	require.Equal(t, len(a), len(b))

	// IDs differ per run but the published wire form is identical.
	aj, err := json.Marshal(a)
	require.NoError(t, err)
	bj, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, aj, bj)
}

func TestEngine_MatchConservation(t *testing.T) {
	e := New(tradingConfig())

	hh := []*model.Household{
		seller("S1", 12, 70),
		seller("S2", 10, 90),
		buyerH("B1", 10, 10, 2.5),
		buyerH("B2", 8, 15, 1.5),
	}

	var supply float64
	for _, h := range hh[:2] {
		supply += h.AvailableAboveReserveKWh(20)
	}

	trades, err := e.Match(hh, tickTime)
	require.NoError(t, err)

	var total float64
	for _, tr := range trades {
		total += tr.KWh
		assert.GreaterOrEqual(t, tr.KWh, 0.05)
	}
	assert.LessOrEqual(t, total, supply+1e-9)
	assert.LessOrEqual(t, total, 4.0+1e-9) // aggregate demand
}
