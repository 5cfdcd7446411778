package ws

import (
	"encoding/json"
	"time"

	"solarshare/internal/config"
	"solarshare/internal/sim"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimStart      = "sim:start"
	TypeSimPause      = "sim:pause"
	TypeSimSetSpeed   = "sim:set_speed"
	TypeConfigTrading = "config:trading"
	TypeConfigWeather = "config:weather"

	// Server -> Client
	TypeSimState = "sim:state"
	TypeTick     = "tick"
	TypeError    = "error"
)

// Client -> Server payloads

type SetSpeedPayload struct {
	Speed float64 `json:"speed"`
}

type TradingConfigPayload struct {
	Trading config.TradingConfig `json:"trading"`
}

type WeatherConfigPayload struct {
	Weather config.WeatherConfig `json:"weather"`
}

// Server -> Client payloads

type SimStatePayload struct {
	Time    string  `json:"time"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func SimStateFromEngine(s sim.State) SimStatePayload {
	return SimStatePayload{
		Time:    s.Time.UTC().Format(time.RFC3339),
		Speed:   s.Speed,
		Running: s.Running,
	}
}
