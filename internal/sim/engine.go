package sim

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"solarshare/internal/config"
	"solarshare/internal/household"
	"solarshare/internal/market"
	"solarshare/internal/metrics"
	"solarshare/internal/model"
	"solarshare/internal/weather"
)

// State represents the current simulation state.
type State struct {
	Time    time.Time `json:"time"`
	Speed   float64   `json:"speed"`
	Running bool      `json:"running"`
}

// Callback receives simulation events. Implementations must treat the
// snapshot as read-only.
type Callback interface {
	OnTick(snap model.TickSnapshot)
	OnState(state State)
}

// WeatherProvider supplies one weather sample and the crisis in effect per
// tick. The built-in generator satisfies it; a host can substitute an
// external feed.
type WeatherProvider interface {
	Step(ts time.Time) (model.WeatherState, *model.CrisisEvent)
}

const weatherHistoryLimit = 168 // one week of hourly samples

// Engine advances the community simulation one hour per tick: weather,
// household updates, demand adjustment, battery and role transitions,
// market matching, metrics, snapshot publication. Phases run strictly in
// that order on a single goroutine; readers only ever observe a fully
// published snapshot.
type Engine struct {
	mu       sync.Mutex
	callback Callback

	weather  WeatherProvider
	model    *household.Model
	market   *market.Engine
	speedCfg config.SpeedConfig
	rng      *rand.Rand

	households []*model.Household
	cumulative model.CommunityMetrics

	simTime time.Time
	running bool
	speed   float64 // ticks per real second
	err     error   // sticky invariant failure; halts tick production

	latest         *model.TickSnapshot
	weatherHistory []model.WeatherState

	stopCh chan struct{}
}

// New builds an engine from a validated config. All randomness (weather
// noise, crisis sampling, cloud impact draws) flows from the single seeded
// source, so equal seeds give byte-identical runs.
func New(cfg config.Config, start time.Time, cb Callback) *Engine {
	rng := rand.New(rand.NewSource(cfg.Seed))

	hh := make([]*model.Household, 0, len(cfg.Households))
	for _, hc := range cfg.Households {
		if len(hc.DemandPattern) == 0 {
			hc.DemandPattern = household.GeneratePattern(hc.Type, rng)
		}
		hh = append(hh, model.NewHousehold(hc))
	}

	return &Engine{
		callback:   cb,
		weather:    weather.New(cfg.Weather, rng),
		model:      household.NewModel(cfg.Trading.MinimumReservePct, rng),
		market:     market.New(cfg.Trading),
		speedCfg:   cfg.Speed,
		rng:        rng,
		households: hh,
		simTime:    start,
		speed:      1,
	}
}

// State returns the current simulation state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{Time: e.simTime, Speed: e.speed, Running: e.running}
}

// Err returns the sticky invariant failure, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Latest returns the most recently published snapshot, or false before the
// first tick.
func (e *Engine) Latest() (model.TickSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest == nil {
		return model.TickSnapshot{}, false
	}
	return *e.latest, true
}

// WeatherHistory returns a copy of the bounded weather sample history.
func (e *Engine) WeatherHistory() []model.WeatherState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.WeatherState, len(e.weatherHistory))
	copy(out, e.weatherHistory)
	return out
}

// Status summarizes the community at the current tick boundary.
func (e *Engine) Status() model.CommunityStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := model.CommunityStatus{
		Households: len(e.households),
		Hour:       e.simTime.Hour(),
	}
	for _, h := range e.households {
		st.TotalGenerated += h.TotalGeneratedKWh
		st.TotalConsumed += h.TotalConsumedKWh
		st.TotalTraded += h.TotalTradedKWh
		switch h.Role {
		case model.RoleSeller:
			st.Sellers++
		case model.RoleBuyer:
			st.Buyers++
		default:
			st.Idle++
		}
	}
	return st
}

// HouseholdStatuses returns the cumulative totals view of every household,
// in configuration order.
func (e *Engine) HouseholdStatuses() []model.HouseholdStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.HouseholdStatus, len(e.households))
	for i, h := range e.households {
		out[i] = model.StatusFor(h)
	}
	return out
}

// HouseholdStatus returns the cumulative totals view of a single household,
// or false if no household has that id.
func (e *Engine) HouseholdStatus(id string) (model.HouseholdStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range e.households {
		if h.Config.ID == id {
			return model.StatusFor(h), true
		}
	}
	return model.HouseholdStatus{}, false
}

// SetTradingConfig replaces the market parameters at a tick boundary.
func (e *Engine) SetTradingConfig(cfg config.TradingConfig) error {
	probe := config.Default()
	probe.Trading = cfg
	if err := probe.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.market = market.New(cfg)
	e.model = household.NewModel(cfg.MinimumReservePct, e.rng)
	return nil
}

// SetWeatherConfig replaces the weather generator at a tick boundary. The
// crisis lifecycle restarts with no active crisis.
func (e *Engine) SetWeatherConfig(cfg config.WeatherConfig) error {
	probe := config.Default()
	probe.Weather = cfg
	if err := probe.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.weather = weather.New(cfg, e.rng)
	return nil
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running || e.err != nil {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.mu.Unlock()

	e.broadcastState()
	go e.loop()
}

// Pause stops the tick loop.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.broadcastState()
}

// SetSpeed sets the pacing in ticks per real second.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0.1 {
		speed = 0.1
	}
	if speed > 60 {
		speed = 60
	}

	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()

	e.broadcastState()
}

func (e *Engine) loop() {
	for {
		timer := time.NewTimer(e.tickInterval())
		select {
		case <-e.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			if err := e.Step(); err != nil {
				e.Pause()
				return
			}
		}
	}
}

// tickInterval derives the real-time delay before the next tick from the
// speed setting and the pacing hints: nights can be fast-forwarded and
// daylight hours slowed down for viewers.
func (e *Engine) tickInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	interval := time.Duration(float64(time.Second) / e.speed)
	hour := e.simTime.Hour()
	if e.speedCfg.FastForwardNights && (hour >= 22 || hour < 6) {
		interval /= 4
	}
	if e.speedCfg.SlowDownDays && hour >= 8 && hour < 18 {
		interval *= 2
	}
	return interval
}

// Step advances the simulation by exactly one tick (one simulated hour).
// Useful for deterministic testing; does not require Start(). On an
// invariant violation the error is recorded, no snapshot is published, and
// all further tick production is refused.
func (e *Engine) Step() error {
	e.mu.Lock()
	if e.err != nil {
		err := e.err
		e.mu.Unlock()
		return err
	}

	ts := e.simTime
	hour := ts.Hour()

	w, crisis := e.weather.Step(ts)
	if !w.Valid() {
		log.Printf("weather sample for %s out of range, substituting defaults", ts.Format(time.RFC3339))
		w = model.DefaultWeather(ts)
	}
	e.weatherHistory = append(e.weatherHistory, w)
	if len(e.weatherHistory) > weatherHistoryLimit {
		e.weatherHistory = e.weatherHistory[len(e.weatherHistory)-weatherHistoryLimit:]
	}

	for _, h := range e.households {
		e.model.ComputeRaw(h, hour, w, crisis)
	}
	household.AdjustDemand(e.households)
	for _, h := range e.households {
		if err := e.model.Finalize(h); err != nil {
			e.err = err
			e.mu.Unlock()
			log.Printf("halting tick production: %v", err)
			return err
		}
	}

	trades, err := e.market.Match(e.households, ts)
	if err != nil {
		e.err = err
		e.mu.Unlock()
		log.Printf("halting tick production: %v", err)
		return err
	}
	if trades == nil {
		trades = []model.Trade{} // quiet ticks publish an empty array, not null
	}

	e.cumulative = metrics.Compute(e.cumulative, trades, e.households)

	entries := make([]model.HouseholdEntry, len(e.households))
	for i, h := range e.households {
		entries[i] = model.EntryFor(h)
	}
	snap := model.TickSnapshot{
		Timestamp:  ts,
		Households: entries,
		Trades:     trades,
		Weather:    w,
		Metrics:    e.cumulative,
	}
	e.latest = &snap

	e.simTime = ts.Add(time.Hour)
	e.mu.Unlock()

	e.callback.OnTick(snap)
	return nil
}

func (e *Engine) broadcastState() {
	e.mu.Lock()
	s := State{Time: e.simTime, Speed: e.speed, Running: e.running}
	e.mu.Unlock()
	e.callback.OnState(s)
}
