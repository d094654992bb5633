package control

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Garsondee/fincraft/internal/sim"
)

type eventRequest struct {
	Type     sim.EventType `json:"type" binding:"required"`
	Amount   float64       `json:"amount"`
	Category sim.Category  `json:"category"`
	TargetID string        `json:"targetId"`
}

type timeViewRequest struct {
	View sim.TimeView `json:"view" binding:"required"`
}

type speedRequest struct {
	Speed float64 `json:"speed" binding:"required"`
}

type buildModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) state(c *gin.Context) {
	sum, ok := s.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no state published yet"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) putAccounts(c *gin.Context) {
	var snap sim.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := snap.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.submit(c, func(st *sim.State) {
		st.SyncAccounts(snap)
		st.SetNetWorth(snap.NetWorth())
	})
}

func (s *Server) postEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type != sim.EventExpense && req.Type != sim.EventDebtPayment {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type " + string(req.Type)})
		return
	}
	if req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}
	ev := sim.Event{Type: req.Type, Amount: req.Amount, Category: req.Category, TargetID: req.TargetID}
	s.submit(c, func(st *sim.State) { st.PushEvent(ev) })
}

func (s *Server) deleteEvents(c *gin.Context) {
	s.submit(c, func(st *sim.State) { st.ClearEvents() })
}

func (s *Server) putTimeView(c *gin.Context) {
	var req timeViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.View.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown time view " + string(req.View)})
		return
	}
	s.submit(c, func(st *sim.State) { st.SetTimeView(req.View) })
}

func (s *Server) putSpeed(c *gin.Context) {
	var req speedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !sim.ValidSpeed(req.Speed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "speed must be one of the offered playback speeds"})
		return
	}
	s.submit(c, func(st *sim.State) { st.SetPlaybackSpeed(req.Speed) })
}

func (s *Server) putBuildMode(c *gin.Context) {
	var req buildModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	on := *req.Enabled
	s.submit(c, func(st *sim.State) { st.SetBuildMode(on) })
}

func (s *Server) putTransactions(c *gin.Context) {
	var txs []sim.Transaction
	if err := c.ShouldBindJSON(&txs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.submit(c, func(st *sim.State) { st.ImportTransactions(txs) })
}

// submit queues cmd and answers 202, or 503 when the inbox is full.
func (s *Server) submit(c *gin.Context, cmd sim.Command) {
	if !s.target.Submit(cmd) {
		s.log.Warn("simulation inbox full, dropping command", "path", c.Request.URL.Path)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "simulation busy, retry"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
