package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solarshare/internal/history"
	"solarshare/internal/model"
	"solarshare/internal/repository"
	"solarshare/internal/sim"
)

// Server exposes the simulation over REST: current metrics and state for
// dashboards, the trade ledger and snapshot history for replay.
type Server struct {
	engine  *sim.Engine
	history *history.Store
	repo    *repository.Repository
}

func NewServer(engine *sim.Engine, hist *history.Store, repo *repository.Repository) *Server {
	return &Server{engine: engine, history: hist, repo: repo}
}

// Register attaches the REST routes to a gin router.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/state", s.state)
	r.GET("/metrics", s.metricsHandler)
	r.GET("/status", s.status)
	r.GET("/households", s.households)
	r.GET("/households/:id/status", s.householdStatus)
	r.GET("/trades", s.trades)
	r.GET("/snapshots", s.snapshots)
}

func (s *Server) health(c *gin.Context) {
	if err := s.engine.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "halted", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.State())
}

func (s *Server) metricsHandler(c *gin.Context) {
	snap, ok := s.engine.Latest()
	if !ok {
		c.JSON(http.StatusOK, model.CommunityMetrics{})
		return
	}
	c.JSON(http.StatusOK, snap.Metrics)
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Status())
}

func (s *Server) households(c *gin.Context) {
	snap, ok := s.engine.Latest()
	if !ok {
		c.JSON(http.StatusOK, []model.HouseholdEntry{})
		return
	}
	c.JSON(http.StatusOK, snap.Households)
}

// householdStatus serves one household's lifetime totals alongside its
// live state, mirroring the community-wide /status view.
func (s *Server) householdStatus(c *gin.Context) {
	st, ok := s.engine.HouseholdStatus(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown household"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) trades(c *gin.Context) {
	rows, err := s.repo.Trades()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// snapshots serves the retained tick history, optionally bounded by
// RFC3339 start/end query parameters (end exclusive).
func (s *Server) snapshots(c *gin.Context) {
	startParam := c.Query("start")
	endParam := c.Query("end")
	if startParam == "" && endParam == "" {
		c.JSON(http.StatusOK, s.history.All())
		return
	}

	start := time.Time{}
	end := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	var err error
	if startParam != "" {
		start, err = time.Parse(time.RFC3339, startParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start timestamp"})
			return
		}
	}
	if endParam != "" {
		end, err = time.Parse(time.RFC3339, endParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end timestamp"})
			return
		}
	}
	c.JSON(http.StatusOK, s.history.Range(start, end))
}
