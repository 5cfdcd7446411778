package main

import (
	"flag"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solarshare/internal/api"
	"solarshare/internal/config"
	"solarshare/internal/history"
	"solarshare/internal/household"
	"solarshare/internal/model"
	"solarshare/internal/repository"
	"solarshare/internal/sim"
	"solarshare/internal/ws"
)

const historyLimit = 720 // 30 simulated days of hourly snapshots

func main() {
	configPath := flag.String("config", "", "path to JSON config file (optional, uses sample community if omitted)")
	dbPath := flag.String("db", "solarshare.db", "path to the SQLite trade ledger")
	addr := flag.String("addr", ":8080", "listen address")
	autostart := flag.Bool("autostart", false, "start the simulation immediately")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Community loaded: %d households, seed %d", len(cfg.Households), cfg.Seed)

	repo, err := repository.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open ledger database: %v", err)
	}

	hub := ws.NewHub()
	hist := history.New(historyLimit)
	cb := &serverCallback{
		bridge: ws.NewBridge(hub),
		hist:   hist,
		repo:   repo,
	}

	start := time.Now().UTC().Truncate(time.Hour)
	engine := sim.New(cfg, start, cb)
	if *autostart {
		engine.Start()
	}

	router := gin.Default()
	api.NewServer(engine, hist, repo).Register(router)
	router.GET("/ws", gin.WrapH(ws.NewHandler(hub, engine)))

	log.Printf("Starting server on %s", *addr)
	if err := http.ListenAndServe(*addr, router); err != nil {
		log.Fatal(err)
	}
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

// serverCallback fans simulation events out to the WebSocket bridge, the
// in-memory snapshot history and the durable ledger.
type serverCallback struct {
	bridge *ws.Bridge
	hist   *history.Store
	repo   *repository.Repository
}

func (c *serverCallback) OnTick(snap model.TickSnapshot) {
	c.hist.Append(snap)
	if err := c.repo.RecordTick(snap); err != nil {
		log.Printf("Failed to record tick at %s: %v", snap.Timestamp.Format(time.RFC3339), err)
	}
	c.bridge.OnTick(snap)
}

func (c *serverCallback) OnState(state sim.State) {
	c.bridge.OnState(state)
}
