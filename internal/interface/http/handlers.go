package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wikichallenge/wikichallenge-server/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// RootResponse summarises the server and the features clients may show.
type RootResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Features  map[string]bool   `json:"features"`
	Online    int64             `json:"online"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleRoot(c *gin.Context) {
	features := map[string]bool{}
	if s.deps.Features != nil {
		features = s.deps.Features.Snapshot()
	}
	c.JSON(http.StatusOK, RootResponse{
		Name:     s.deps.AppName,
		Version:  s.deps.Version,
		Features: features,
		Online:   s.online(c),
		Endpoints: map[string]string{
			"health":    "/health",
			"ready":     "/ready",
			"websocket": "/ws",
		},
	})
}

// handleHealth is the liveness probe. It never touches dependencies.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"uptime":  s.Uptime().Round(time.Second).String(),
		"version": s.deps.Version,
	})
}

// ReadyResponse is the readiness probe body.
type ReadyResponse struct {
	Status string                `json:"status"`
	Online int64                 `json:"online"`
	Health handlers.HealthStatus `json:"health"`
}

// handleReady runs every dependency check and answers 503 if any fails.
func (s *Server) handleReady(c *gin.Context) {
	health := s.deps.HealthChecker.Check(c.Request.Context())
	resp := ReadyResponse{
		Status: "ready",
		Online: s.online(c),
		Health: health,
	}
	if !health.Healthy {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleWebsocket hands the connection to the realtime hub.
func (s *Server) handleWebsocket(c *gin.Context) {
	s.deps.Realtime.ServeWS(c.Writer, c.Request)
}

func (s *Server) online(c *gin.Context) int64 {
	if s.deps.Realtime == nil {
		return 0
	}
	return s.deps.Realtime.OnlineCount(c.Request.Context())
}
