// Package control exposes the HTTP surface the accounts form talks to. Every
// handler turns its request into a sim.Command; nothing here touches the
// simulation state directly.
package control

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/Garsondee/fincraft/internal/sim"
)

// Submitter accepts commands for the next simulation tick.
type Submitter interface {
	Submit(cmd sim.Command) bool
}

// Config holds server settings.
type Config struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server routes control requests into the simulation and streams summaries
// to websocket clients.
type Server struct {
	engine *gin.Engine
	ws     *melody.Melody
	target Submitter
	log    *slog.Logger

	mu        sync.RWMutex
	latest    sim.Summary
	published bool
}

// New builds the router. target is usually the running *sim.State.
func New(target Submitter, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: gin.New(),
		ws:     newMelody(logger),
		target: target,
		log:    logger,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	s.engine.Use(gin.Recovery())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	s.engine.Use(s.requestLog)

	s.engine.GET("/health", s.health)
	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/state", s.state)
		v1.PUT("/accounts", s.putAccounts)
		v1.POST("/events", s.postEvent)
		v1.DELETE("/events", s.deleteEvents)
		v1.PUT("/timeview", s.putTimeView)
		v1.PUT("/speed", s.putSpeed)
		v1.PUT("/buildmode", s.putBuildMode)
		v1.PUT("/transactions", s.putTransactions)
		v1.GET("/ws", s.handleWS)
	}
	return s
}

func newMelody(logger *slog.Logger) *melody.Melody {
	m := melody.New()
	m.Config.MaxMessageSize = 64 * 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second
	m.HandleConnect(func(sess *melody.Session) {
		logger.Info("summary stream connected", "remote", sess.Request.RemoteAddr)
	})
	m.HandleDisconnect(func(sess *melody.Session) {
		logger.Info("summary stream disconnected", "remote", sess.Request.RemoteAddr)
	})
	m.HandleError(func(sess *melody.Session, err error) {
		logger.Warn("summary stream error", "error", err)
	})
	return m
}

// Handler returns the router for use with http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("control server listening", "addr", addr)
	return s.engine.Run(addr)
}

// Close disconnects every websocket client.
func (s *Server) Close() error {
	return s.ws.Close()
}

// Publish stores the summary for GET /state and broadcasts it to stream clients.
func (s *Server) Publish(sum sim.Summary) {
	s.mu.Lock()
	s.latest = sum
	s.published = true
	s.mu.Unlock()

	if s.ws.Len() == 0 {
		return
	}
	msg, err := json.Marshal(sum)
	if err != nil {
		s.log.Warn("encode summary", "error", err)
		return
	}
	if err := s.ws.Broadcast(msg); err != nil {
		s.log.Warn("broadcast summary", "error", err)
	}
}

// Latest returns the last published summary.
func (s *Server) Latest() (sim.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.published
}

func (s *Server) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("control request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start))
}

func (s *Server) handleWS(c *gin.Context) {
	if err := s.ws.HandleRequest(c.Writer, c.Request); err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
	}
}
