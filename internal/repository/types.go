package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"solarshare/internal/model"
)

// StoredTrade is one row of the durable trade ledger. The total is computed
// in decimal before persistence so exported rows carry exact money values.
type StoredTrade struct {
	ID       string `gorm:"primaryKey"`
	Time     time.Time
	Hour     int
	SellerID string
	BuyerID  string
	KWh      float64
	Price    float64
	Total    string
}

func newStoredTrade(t model.Trade) StoredTrade {
	total := decimal.NewFromFloat(t.KWh).Mul(decimal.NewFromFloat(t.Price)).Round(4)
	return StoredTrade{
		ID:       t.ID.String(),
		Time:     t.Timestamp,
		Hour:     t.Timestamp.Hour(),
		SellerID: t.SellerID,
		BuyerID:  t.BuyerID,
		KWh:      t.KWh,
		Price:    t.Price,
		Total:    total.String(),
	}
}

// StoredHouseholdState is one household's end-of-tick state, persisted at
// full precision so a stored run can be replayed exactly.
type StoredHouseholdState struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Time        time.Time `gorm:"index"`
	HouseholdID string
	StoredPct   float64
	Role        string
}

// StoredTick keeps the published envelope verbatim for historical backfill.
type StoredTick struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	Time     time.Time `gorm:"index"`
	Envelope []byte
}
