package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/shopspring/decimal"

	"solarshare/internal/metrics"
	"solarshare/internal/repository"
)

// Prints trade statistics from a recorded ledger database: per-pair volume,
// per-seller earnings and the community metrics replayed from stored state.
func main() {
	dbPath := flag.String("db", "solarshare.db", "path to the SQLite trade ledger")
	flag.Parse()

	repo, err := repository.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open ledger database: %v", err)
	}

	trades, err := repo.Trades()
	if err != nil {
		log.Fatalf("Failed to read trades: %v", err)
	}
	if len(trades) == 0 {
		fmt.Println("Ledger is empty")
		return
	}

	type pairStat struct {
		pair  string
		kwh   float64
		count int
		total decimal.Decimal
	}
	pairs := make(map[string]*pairStat)
	earnings := make(map[string]decimal.Decimal)

	for _, t := range trades {
		key := t.SellerID + " -> " + t.BuyerID
		ps, ok := pairs[key]
		if !ok {
			ps = &pairStat{pair: key}
			pairs[key] = ps
		}
		total, err := decimal.NewFromString(t.Total)
		if err != nil {
			log.Fatalf("Corrupt total on trade %s: %v", t.ID, err)
		}
		ps.kwh += t.KWh
		ps.count++
		ps.total = ps.total.Add(total)
		earnings[t.SellerID] = earnings[t.SellerID].Add(total)
	}

	stats := make([]*pairStat, 0, len(pairs))
	for _, ps := range pairs {
		stats = append(stats, ps)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].kwh > stats[j].kwh })

	fmt.Printf("%d trades across %d pairs\n\n", len(trades), len(stats))
	fmt.Println("Pair volume:")
	for _, ps := range stats {
		fmt.Printf("  %-16s %8.2f kWh  %4d trades  $%s\n", ps.pair, ps.kwh, ps.count, ps.total.StringFixed(2))
	}

	sellers := make([]string, 0, len(earnings))
	for id := range earnings {
		sellers = append(sellers, id)
	}
	sort.Strings(sellers)

	fmt.Println("\nSeller earnings:")
	for _, id := range sellers {
		fmt.Printf("  %-6s $%s\n", id, earnings[id].StringFixed(2))
	}

	ticks, err := repo.TickRecords()
	if err != nil {
		log.Fatalf("Failed to rebuild tick records: %v", err)
	}
	m := metrics.Replay(ticks)
	fmt.Println("\nReplayed community metrics:")
	fmt.Printf("  Energy traded: %.2f kWh\n", m.EnergyTradedKWh)
	fmt.Printf("  Cost savings:  $%.2f\n", m.CostSavings)
	fmt.Printf("  CO2 reduced:   %.2f kg\n", m.CO2ReducedKg)
	fmt.Printf("  Resilience:    %.1f\n", m.Resilience)
}
