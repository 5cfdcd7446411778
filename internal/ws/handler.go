package ws

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"solarshare/internal/sim"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes messages to the engine.
type Handler struct {
	hub    *Hub
	engine *sim.Engine
}

func NewHandler(hub *Hub, engine *sim.Engine) *Handler {
	return &Handler{hub: hub, engine: engine}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.hub.Register(client)
	go client.writePump()

	// Bring the viewer up to date before streaming live ticks.
	h.sendSimState(client)
	h.sendLatestTick(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("Invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeSimStart:
		h.engine.Start()

	case TypeSimPause:
		h.engine.Pause()

	case TypeSimSetSpeed:
		var p SetSpeedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("Invalid set_speed payload: %v", err)
			return
		}
		h.engine.SetSpeed(p.Speed)

	case TypeConfigTrading:
		var p TradingConfigPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("Invalid trading config payload: %v", err)
			return
		}
		if err := h.engine.SetTradingConfig(p.Trading); err != nil {
			h.sendError(c, err)
		}

	case TypeConfigWeather:
		var p WeatherConfigPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("Invalid weather config payload: %v", err)
			return
		}
		if err := h.engine.SetWeatherConfig(p.Weather); err != nil {
			h.sendError(c, err)
		}

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

func (h *Handler) sendSimState(c *Client) {
	msg, err := NewEnvelope(TypeSimState, SimStateFromEngine(h.engine.State()))
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Handler) sendLatestTick(c *Client) {
	snap, ok := h.engine.Latest()
	if !ok {
		return
	}
	msg, err := NewEnvelope(TypeTick, snap)
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Handler) sendError(c *Client, err error) {
	msg, merr := NewEnvelope(TypeError, ErrorPayload{Message: err.Error()})
	if merr != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
