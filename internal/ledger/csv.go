package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"solarshare/internal/model"
)

var header = []string{"time", "hour", "seller_id", "buyer_id", "kwh", "price", "total"}

// Writer appends trades to a CSV ledger.
type Writer struct {
	w *csv.Writer
}

// NewWriter wraps an output stream and writes the ledger header.
func NewWriter(out io.Writer) (*Writer, error) {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{w: w}, nil
}

// Append writes one trade row. The monetary total is computed in decimal so
// the exported value is exact.
func (w *Writer) Append(t model.Trade) error {
	total := decimal.NewFromFloat(t.KWh).Mul(decimal.NewFromFloat(t.Price)).Round(4)
	return w.w.Write([]string{
		t.Timestamp.Format(time.RFC3339),
		strconv.Itoa(t.Timestamp.Hour()),
		t.SellerID,
		t.BuyerID,
		strconv.FormatFloat(t.KWh, 'f', -1, 64),
		strconv.FormatFloat(t.Price, 'f', -1, 64),
		total.String(),
	})
}

// Flush writes buffered rows to the underlying stream.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Parser reads a trade ledger CSV back into trades.
type Parser struct{}

func (p *Parser) Parse(r io.Reader) ([]model.Trade, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var trades []model.Trade
	for i, row := range rows {
		if i == 0 && row[0] == header[0] {
			continue
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("ledger row %d: expected %d columns, got %d", i+1, len(header), len(row))
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+1, err)
		}
		kwh, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+1, err)
		}
		price, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+1, err)
		}
		trades = append(trades, model.Trade{
			Timestamp: ts,
			SellerID:  row[2],
			BuyerID:   row[3],
			KWh:       kwh,
			Price:     price,
		})
	}
	return trades, nil
}
