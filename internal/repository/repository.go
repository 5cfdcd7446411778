package repository

import (
	"encoding/json"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"solarshare/internal/metrics"
	"solarshare/internal/model"
)

// Repository persists the trade ledger, household-state history and tick
// envelopes to a local sqlite file.
type Repository struct {
	db *gorm.DB
}

func New(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	err = db.AutoMigrate(&StoredTrade{}, &StoredHouseholdState{}, &StoredTick{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

// RecordTick persists everything durable about one published snapshot: the
// ledger rows for its trades, the household-state history, and the envelope
// itself for backfill.
func (r *Repository) RecordTick(snap model.TickSnapshot) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range snap.Trades {
			row := newStoredTrade(t)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, entry := range snap.Households {
			row := StoredHouseholdState{
				Time:        snap.Timestamp,
				HouseholdID: entry.ID,
				StoredPct:   entry.StoredPct,
				Role:        string(entry.Role),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		envelope, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		return tx.Create(&StoredTick{Time: snap.Timestamp, Envelope: envelope}).Error
	})
}

// Trades returns the full ledger in time order.
func (r *Repository) Trades() ([]StoredTrade, error) {
	var rows []StoredTrade
	result := r.db.Order("time asc, id asc").Find(&rows)
	return rows, result.Error
}

// Envelopes returns up to limit tick envelopes in time order, the complete
// run when limit is zero.
func (r *Repository) Envelopes(limit int) ([]json.RawMessage, error) {
	var rows []StoredTick
	query := r.db.Order("time asc, id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, len(rows))
	for i, row := range rows {
		out[i] = json.RawMessage(row.Envelope)
	}
	return out, nil
}

// TickRecords reconstructs, in time order, the metrics inputs for every
// stored tick. Replaying them reproduces the live run's cumulative metrics.
func (r *Repository) TickRecords() ([]metrics.TickRecord, error) {
	var states []StoredHouseholdState
	if err := r.db.Order("time asc, id asc").Find(&states).Error; err != nil {
		return nil, err
	}
	var trades []StoredTrade
	if err := r.db.Order("time asc, id asc").Find(&trades).Error; err != nil {
		return nil, err
	}

	var order []int64
	byTick := map[int64]*metrics.TickRecord{}
	record := func(unix int64) *metrics.TickRecord {
		if rec, ok := byTick[unix]; ok {
			return rec
		}
		rec := &metrics.TickRecord{}
		byTick[unix] = rec
		order = append(order, unix)
		return rec
	}

	for _, s := range states {
		rec := record(s.Time.Unix())
		rec.Households = append(rec.Households, metrics.HouseholdSample{
			StoredPct: s.StoredPct,
			Role:      model.Role(s.Role),
		})
	}
	for _, t := range trades {
		rec := record(t.Time.Unix())
		id, err := uuid.Parse(t.ID)
		if err != nil {
			return nil, fmt.Errorf("ledger row %s: %w", t.ID, err)
		}
		rec.Trades = append(rec.Trades, model.Trade{
			ID:        id,
			SellerID:  t.SellerID,
			BuyerID:   t.BuyerID,
			KWh:       t.KWh,
			Price:     t.Price,
			Timestamp: t.Time,
		})
	}

	records := make([]metrics.TickRecord, len(order))
	for i, unix := range order {
		records[i] = *byTick[unix]
	}
	return records, nil
}
