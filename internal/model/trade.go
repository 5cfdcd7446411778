package model

import (
	"time"

	"github.com/google/uuid"
)

// Trade is one executed energy transfer between two households. Immutable
// once created. The wire format exposes only from/to/kwh/price; the ID and
// timestamp are carried for the durable ledger.
type Trade struct {
	ID        uuid.UUID `json:"-"`
	SellerID  string    `json:"from"`
	BuyerID   string    `json:"to"`
	KWh       float64   `json:"kwh"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"-"`
}

// CommunityMetrics holds cumulative run totals plus per-tick deltas.
// Deltas are formatted with an explicit leading sign.
type CommunityMetrics struct {
	EnergyTradedKWh float64 `json:"energy_traded"`
	CostSavings     float64 `json:"cost_savings"`
	CO2ReducedKg    float64 `json:"co2_reduced"`
	Resilience      float64 `json:"resilience"`

	DeltaEnergy     string `json:"delta_energy"`
	DeltaSavings    string `json:"delta_savings"`
	DeltaCO2        string `json:"delta_co2"`
	DeltaResilience string `json:"delta_resilience"`
}
