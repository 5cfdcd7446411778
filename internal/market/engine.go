package market

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"solarshare/internal/config"
	"solarshare/internal/model"
)

// Engine matches sellers with buyers over up to a configured number of
// rounds per tick. Matching is fully deterministic for a given input state:
// sorts are stable and households are walked in order, so identical runs
// produce identical trade lists.
type Engine struct {
	cfg config.TradingConfig
}

func New(cfg config.TradingConfig) *Engine {
	return &Engine{cfg: cfg}
}

// buyer tracks a buyer's remaining unmet need across rounds. The need is
// fixed at the tick's deficit; purchases reduce it while raising SOC.
type buyer struct {
	h    *model.Household
	need float64
}

// Match runs the tick's market. Zero sellers, zero buyers or zero aggregate
// demand simply yields no trades. An error indicates broken accounting and
// means the tick must not be published.
func (e *Engine) Match(households []*model.Household, ts time.Time) ([]model.Trade, error) {
	var sellers []*model.Household
	var buyers []*buyer
	for _, h := range households {
		switch h.Role {
		case model.RoleSeller:
			sellers = append(sellers, h)
		case model.RoleBuyer:
			buyers = append(buyers, &buyer{h: h, need: math.Abs(h.NetEnergyKW)})
		}
	}
	if len(sellers) == 0 || len(buyers) == 0 {
		return nil, nil
	}

	var supply, demand float64
	for _, s := range sellers {
		supply += s.AvailableAboveReserveKWh(e.cfg.MinimumReservePct)
	}
	for _, b := range buyers {
		demand += b.need
	}
	if demand == 0 {
		return nil, nil
	}

	price := e.tickPrice(supply / demand)

	var trades []model.Trade
	for round := 1; round <= e.cfg.MaxTradingRounds; round++ {
		// Highest-reserve sellers release energy first.
		sort.SliceStable(sellers, func(i, j int) bool {
			return sellers[i].StoredEnergyPct > sellers[j].StoredEnergyPct
		})
		// Lowest-storage, highest-deficit buyers are served first.
		sort.SliceStable(buyers, func(i, j int) bool {
			if buyers[i].h.StoredEnergyPct != buyers[j].h.StoredEnergyPct {
				return buyers[i].h.StoredEnergyPct < buyers[j].h.StoredEnergyPct
			}
			return math.Abs(buyers[i].h.NetEnergyKW) > math.Abs(buyers[j].h.NetEnergyKW)
		})

		for _, b := range buyers {
			if b.need <= 0 {
				continue
			}
			for _, s := range sellers {
				avail := s.AvailableAboveReserveKWh(e.cfg.MinimumReservePct)
				if avail <= 0 {
					continue
				}

				amount := math.Min(avail, b.need)
				amount = math.Min(amount, e.roundCap(round, avail, b.need))
				// Reduce to what the buyer's battery can actually absorb
				// before the size check, never after.
				amount = math.Min(amount, b.h.HeadroomKWh())
				if amount < e.cfg.MinTradeSize {
					continue
				}

				s.StoredEnergyPct -= amount / s.Config.BatterySizeKWh * 100
				b.h.StoredEnergyPct += amount / b.h.Config.BatterySizeKWh * 100
				if err := checkTradeBounds(s, b.h, e.cfg.MinimumReservePct); err != nil {
					return trades, err
				}

				s.TotalTradedKWh += amount
				b.h.TotalTradedKWh += amount
				b.need -= amount

				trades = append(trades, model.Trade{
					ID:        uuid.New(),
					SellerID:  s.Config.ID,
					BuyerID:   b.h.Config.ID,
					KWh:       amount,
					Price:     price,
					Timestamp: ts,
				})

				if b.need <= 0 {
					break
				}
			}
		}

		if !e.marketRemains(sellers, buyers) {
			break
		}
	}

	return trades, nil
}

// tickPrice selects the single price used by every trade in the tick from
// the supply/demand ratio: surplus markets favor buyers, scarce markets
// favor sellers.
func (e *Engine) tickPrice(ratio float64) float64 {
	switch {
	case ratio > 1.5:
		return e.cfg.MinPrice
	case ratio > 0.8:
		return (e.cfg.MinPrice + e.cfg.MaxPrice) / 2
	default:
		return e.cfg.MaxPrice
	}
}

// roundCap limits a single trade's size. The first round moves larger
// blocks; later rounds fill the gaps with smaller ones.
func (e *Engine) roundCap(round int, sellerAvail, buyerNeed float64) float64 {
	if round == 1 {
		return math.Min(math.Min(sellerAvail*0.6, buyerNeed*0.8), e.cfg.MaxTradeSizeFirst)
	}
	return math.Min(math.Min(sellerAvail*0.4, buyerNeed*0.6), 1.0)
}

// marketRemains reports whether another round could still produce trades:
// at least one seller above reserve and one buyer with unmet need.
func (e *Engine) marketRemains(sellers []*model.Household, buyers []*buyer) bool {
	var sellerLeft bool
	for _, s := range sellers {
		if s.AvailableAboveReserveKWh(e.cfg.MinimumReservePct) > 0 {
			sellerLeft = true
			break
		}
	}
	if !sellerLeft {
		return false
	}
	for _, b := range buyers {
		if b.need > 0 {
			return true
		}
	}
	return false
}

// checkTradeBounds verifies a trade left both parties inside their bounds:
// the seller at or above the reserve floor, the buyer at or below 100%.
// Rounding noise is clamped; anything more is an accounting bug.
func checkTradeBounds(seller, buyr *model.Household, reservePct float64) error {
	const eps = 1e-9
	if seller.StoredEnergyPct < reservePct-eps {
		return &model.InvariantError{
			HouseholdID: seller.Config.ID,
			Detail:      fmt.Sprintf("trade drained seller to %.6f%%, below the %.0f%% reserve", seller.StoredEnergyPct, reservePct),
		}
	}
	if seller.StoredEnergyPct < reservePct {
		seller.StoredEnergyPct = reservePct
	}
	if buyr.StoredEnergyPct > 100+eps {
		return &model.InvariantError{
			HouseholdID: buyr.Config.ID,
			Detail:      fmt.Sprintf("trade charged buyer to %.6f%%, above capacity", buyr.StoredEnergyPct),
		}
	}
	if buyr.StoredEnergyPct > 100 {
		buyr.StoredEnergyPct = 100
	}
	return nil
}
