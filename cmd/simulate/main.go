package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"solarshare/internal/config"
	"solarshare/internal/household"
	"solarshare/internal/ledger"
	"solarshare/internal/model"
	"solarshare/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file (optional, uses sample community if omitted)")
	hours := flag.Int("hours", 72, "number of simulated hours to run")
	seed := flag.Int64("seed", 0, "override the config seed (0 keeps the config value)")
	out := flag.String("out", "trades.csv", "path for the CSV trade ledger")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	collector := &tradeCollector{}
	engine := sim.New(cfg, start, collector)

	for i := 0; i < *hours; i++ {
		if err := engine.Step(); err != nil {
			log.Fatalf("Simulation halted at hour %d: %v", i, err)
		}
	}

	if err := writeLedger(*out, collector.trades); err != nil {
		log.Fatalf("Failed to write ledger: %v", err)
	}

	printSummary(engine, collector, *hours)
	log.Printf("Ledger written to %s (%d trades)", *out, len(collector.trades))
}

// loadConfig reads the config file when a path is given, otherwise builds
// the default config around the sample community.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	rng := rand.New(rand.NewSource(cfg.Seed))
	cfg.Households = household.SampleCommunity(rng)
	return cfg, cfg.Validate()
}

func writeLedger(path string, trades []model.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w, err := ledger.NewWriter(f)
	if err != nil {
		return err
	}
	for _, t := range trades {
		if err := w.Append(t); err != nil {
			return err
		}
	}
	return w.Flush()
}

func printSummary(engine *sim.Engine, collector *tradeCollector, hours int) {
	snap, ok := engine.Latest()
	if !ok {
		fmt.Println("No ticks produced")
		return
	}
	status := engine.Status()

	fmt.Printf("Simulated %d hours, %d households\n", hours, status.Households)
	fmt.Printf("  Energy traded:   %.2f kWh over %d trades\n", snap.Metrics.EnergyTradedKWh, len(collector.trades))
	fmt.Printf("  Cost savings:    $%.2f\n", snap.Metrics.CostSavings)
	fmt.Printf("  CO2 reduced:     %.2f kg\n", snap.Metrics.CO2ReducedKg)
	fmt.Printf("  Resilience:      %.1f\n", snap.Metrics.Resilience)
	fmt.Printf("  Generated/consumed: %.1f / %.1f kWh\n", status.TotalGenerated, status.TotalConsumed)

	fmt.Println("Households:")
	for _, entry := range snap.Households {
		fmt.Printf("  %-6s battery %3d%%  role %-6s\n", entry.ID, entry.Battery, entry.Role)
	}
}

// tradeCollector accumulates every trade published during the run.
type tradeCollector struct {
	trades []model.Trade
}

func (c *tradeCollector) OnTick(snap model.TickSnapshot) {
	c.trades = append(c.trades, snap.Trades...)
}

func (c *tradeCollector) OnState(sim.State) {}
