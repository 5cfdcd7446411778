package weather

import (
	"math"
	"math/rand"
	"time"

	"solarshare/internal/config"
	"solarshare/internal/model"
)

// Engine produces one weather sample per tick and manages the crisis
// lifecycle. All randomness comes from the injected source so runs are
// reproducible.
type Engine struct {
	cfg    config.WeatherConfig
	rng    *rand.Rand
	crisis *model.CrisisEvent
}

func New(cfg config.WeatherConfig, rng *rand.Rand) *Engine {
	return &Engine{cfg: cfg, rng: rng}
}

// Crisis returns the currently active crisis, or nil.
func (e *Engine) Crisis() *model.CrisisEvent {
	return e.crisis
}

// Step advances the crisis lifecycle for the tick and returns a fresh
// weather sample plus the crisis in effect (nil when none).
func (e *Engine) Step(ts time.Time) (model.WeatherState, *model.CrisisEvent) {
	hour := ts.Hour()

	e.expire(hour)
	if e.crisis == nil && e.rng.Float64() < e.cfg.CrisisProbability {
		e.crisis = e.trigger(hour)
	}

	return e.sample(ts, hour), e.crisis
}

// expire deactivates the crisis once the current hour passes its end, or
// when the clock has wrapped past midnight into a new day.
func (e *Engine) expire(hour int) {
	if e.crisis == nil {
		return
	}
	if hour >= e.crisis.EndHour || hour < e.crisis.StartHour {
		e.crisis = nil
	}
}

// trigger samples a new heatwave starting at the given hour. Callers must
// ensure no crisis is currently active.
func (e *Engine) trigger(hour int) *model.CrisisEvent {
	duration := e.cfg.HeatwaveMinDuration + e.rng.Intn(4)
	end := hour + duration
	if end > 24 {
		end = 24
	}
	return &model.CrisisEvent{
		DemandMultiplier: e.uniform(1.5, e.cfg.HeatwaveDemandMultiplier),
		SolarReduction:   e.uniform(0.3, e.cfg.HeatwaveSolarReduction),
		DurationHours:    duration,
		StartHour:        hour,
		EndHour:          end,
		Active:           true,
	}
}

func (e *Engine) sample(ts time.Time, hour int) model.WeatherState {
	h := float64(hour)

	temp := e.cfg.TempMean + 5*math.Sin(2*math.Pi*(h-9)/24) + e.uniform(-0.5, 0.5)

	var radiation float64
	if hour >= 6 && hour < 18 {
		radiation = math.Max(200, math.Cos((h-12)*math.Pi/15)*e.cfg.MaxSolarRadiation)
		radiation += e.uniform(-30, 30)
	}

	clouds := clamp(e.cfg.CloudsBase+e.uniform(-15, 15), 10, 60)
	humidity := clamp(55+15*math.Sin(2*math.Pi*(h-6)/24)+e.uniform(-5, 5), 40, 80)

	return model.WeatherState{
		Timestamp:      ts,
		TempC:          temp,
		CloudsPct:      clouds,
		SolarRadiation: radiation,
		HumidityPct:    humidity,
	}
}

func (e *Engine) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
