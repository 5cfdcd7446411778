package model

import (
	"math"
	"time"
)

// HouseholdEntry is the per-household view published in a TickSnapshot.
// StoredPct carries the full-precision state of charge for ledger replay;
// the wire format rounds it to the battery field.
type HouseholdEntry struct {
	ID        string  `json:"id"`
	Role      Role    `json:"role"`
	Battery   int     `json:"battery"`
	Solar     float64 `json:"solar"`
	Demand    float64 `json:"demand"`
	NetEnergy float64 `json:"net_energy"`
	StoredPct float64 `json:"-"`
}

// TickSnapshot is the only externally visible unit of simulation output.
// It is assembled once per tick after all phases complete and is fully
// immutable once published.
type TickSnapshot struct {
	Timestamp  time.Time        `json:"timestamp"`
	Households []HouseholdEntry `json:"households"`
	Trades     []Trade          `json:"trades"`
	Weather    WeatherState     `json:"weather"`
	Metrics    CommunityMetrics `json:"metrics"`
}

// EntryFor builds the published view of a household's current state.
func EntryFor(h *Household) HouseholdEntry {
	return HouseholdEntry{
		ID:        h.Config.ID,
		Role:      h.Role,
		Battery:   int(math.Round(h.StoredEnergyPct)),
		Solar:     h.SolarKW,
		Demand:    h.DemandKW,
		NetEnergy: h.NetEnergyKW,
		StoredPct: h.StoredEnergyPct,
	}
}

// HouseholdStatus is the per-household view served by the API: the live
// tick state plus the lifetime generated/consumed/traded totals.
type HouseholdStatus struct {
	ID             string  `json:"id"`
	Role           Role    `json:"role"`
	Battery        int     `json:"battery"`
	NetEnergy      float64 `json:"net_energy"`
	TotalGenerated float64 `json:"total_generated"`
	TotalConsumed  float64 `json:"total_consumed"`
	TotalTraded    float64 `json:"total_traded"`
}

// StatusFor builds the cumulative status view of a household.
func StatusFor(h *Household) HouseholdStatus {
	return HouseholdStatus{
		ID:             h.Config.ID,
		Role:           h.Role,
		Battery:        int(math.Round(h.StoredEnergyPct)),
		NetEnergy:      h.NetEnergyKW,
		TotalGenerated: h.TotalGeneratedKWh,
		TotalConsumed:  h.TotalConsumedKWh,
		TotalTraded:    h.TotalTradedKWh,
	}
}

// CommunityStatus summarizes the community at the end of a tick.
type CommunityStatus struct {
	Households     int     `json:"total_households"`
	TotalGenerated float64 `json:"total_generated"`
	TotalConsumed  float64 `json:"total_consumed"`
	TotalTraded    float64 `json:"total_traded"`
	Sellers        int     `json:"sellers"`
	Buyers         int     `json:"buyers"`
	Idle           int     `json:"idle"`
	Hour           int     `json:"current_hour"`
}
