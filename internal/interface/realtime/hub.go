package realtime

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPTIONAL COLLABORATORS
// ══════════════════════════════════════════════════════════════════════════════

// FeatureSource provides the feature toggles pushed on connect.
type FeatureSource interface {
	Snapshot() map[string]bool
}

// RateLimiter decides whether a connection may send one more event.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// PresenceTracker counts open connections across server instances.
type PresenceTracker interface {
	Join(ctx context.Context, connID string) error
	Leave(ctx context.Context, connID string) error
	Count(ctx context.Context) (int64, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// HubConfig tunes connection handling.
type HubConfig struct {
	// EventTimeout bounds each dispatched event.
	EventTimeout time.Duration

	// SendBuffer is the per-connection outbound queue length. Frames beyond
	// it are dropped.
	SendBuffer int

	ReadLimit  int64
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration

	// PresenceRefresh is how often an open connection renews its presence
	// entry. It must stay below the tracker's TTL.
	PresenceRefresh time.Duration

	// AllowedOrigins for the upgrade; empty or "*" accepts any origin.
	AllowedOrigins []string
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		EventTimeout:    10 * time.Second,
		SendBuffer:      32,
		ReadLimit:       64 * 1024,
		WriteWait:       10 * time.Second,
		PongWait:        60 * time.Second,
		PingPeriod:      54 * time.Second,
		PresenceRefresh: 30 * time.Second,
		AllowedOrigins:  []string{"*"},
	}
}

func (c *HubConfig) applyDefaults() {
	d := DefaultHubConfig()
	if c.EventTimeout <= 0 {
		c.EventTimeout = d.EventTimeout
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	if c.PresenceRefresh <= 0 {
		c.PresenceRefresh = d.PresenceRefresh
	}
}

// HubOption configures optional collaborators.
type HubOption func(*Hub)

// WithFeatures pushes fs.Snapshot() to every new connection.
func WithFeatures(fs FeatureSource) HubOption {
	return func(h *Hub) { h.features = fs }
}

// WithRateLimiter drops events of connections over the limit.
func WithRateLimiter(l RateLimiter) HubOption {
	return func(h *Hub) { h.limiter = l }
}

// WithPresence records open connections in a shared tracker.
func WithPresence(p PresenceTracker) HubOption {
	return func(h *Hub) { h.presence = p }
}

// ══════════════════════════════════════════════════════════════════════════════
// HUB
// ══════════════════════════════════════════════════════════════════════════════

// Hub owns the open connections and dispatches their events. Handlers run
// under the hub's base context, not the connection's, so a disconnect does
// not abort a store write already in flight.
type Hub struct {
	base     context.Context
	router   *Router
	cfg      HubConfig
	upgrader websocket.Upgrader
	log      *logger.Logger

	features FeatureSource
	limiter  RateLimiter
	presence PresenceTracker

	mu       sync.RWMutex
	clients  map[string]*client
	closing  bool
	inflight sync.WaitGroup
}

// NewHub creates a hub. Cancelling base cancels every in-flight event.
func NewHub(base context.Context, router *Router, cfg HubConfig, log *logger.Logger, opts ...HubOption) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	cfg.applyDefaults()

	h := &Hub{
		base:    base,
		router:  router,
		cfg:     cfg,
		log:     log.Named("realtime"),
		clients: make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origins := h.cfg.AllowedOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return true
	}
	return slices.Contains(origins, r.Header.Get("Origin"))
}

// ServeWS upgrades the request and serves the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closing := h.closing
	h.mu.RUnlock()
	if closing {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", logger.Err(err))
		return
	}

	c := newClient(uuid.NewString(), h, conn)
	h.register(c)

	if h.features != nil {
		c.Emit(EventFeaturesEnabled, h.features.Snapshot())
	}

	go c.writePump()
	c.readPump()
}

// OnlineCount returns the number of connected players: the shared presence
// count when available, this instance's connections otherwise.
func (h *Hub) OnlineCount(ctx context.Context) int64 {
	if h.presence != nil {
		n, err := h.presence.Count(ctx)
		if err == nil {
			return n
		}
		h.log.Warn("presence count failed", logger.Err(err))
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return int64(len(h.clients))
}

// Shutdown closes every connection and waits for in-flight events until
// ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	open := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		open = append(open, c)
	}
	h.mu.Unlock()

	for _, c := range open {
		c.close()
	}

	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.Debug("client connected", logger.ConnID(c.id))
	if h.presence != nil {
		h.withTimeout(func(ctx context.Context) error { return h.presence.Join(ctx, c.id) }, "presence join failed")
	}
}

// heartbeat renews the connection's presence entry.
func (h *Hub) heartbeat(c *client) {
	h.withTimeout(func(ctx context.Context) error { return h.presence.Join(ctx, c.id) }, "presence heartbeat failed")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
	h.log.Debug("client disconnected", logger.ConnID(c.id))
	if h.presence != nil {
		h.withTimeout(func(ctx context.Context) error { return h.presence.Leave(ctx, c.id) }, "presence leave failed")
	}
}

// dispatch handles env on its own goroutine so slow store calls never block
// the connection's reader.
func (h *Hub) dispatch(c *client, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closing {
		return
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()

		ctx, cancel := context.WithTimeout(h.base, h.cfg.EventTimeout)
		defer cancel()
		h.router.Dispatch(ctx, env, c)
	}()
}

// allow applies the rate limiter. Limiter failures let the event through.
func (h *Hub) allow(c *client, event string) bool {
	if h.limiter == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(h.base, h.cfg.WriteWait)
	defer cancel()

	ok, err := h.limiter.Allow(ctx, c.id)
	if err != nil {
		h.log.Warn("rate limiter unavailable", logger.ConnID(c.id), logger.Err(err))
		return true
	}
	if !ok {
		h.log.Debug("event rate limited", logger.ConnID(c.id), logger.Event(event))
	}
	return ok
}

func (h *Hub) withTimeout(fn func(ctx context.Context) error, msg string) {
	ctx, cancel := context.WithTimeout(h.base, h.cfg.WriteWait)
	defer cancel()
	if err := fn(ctx); err != nil {
		h.log.Warn(msg, logger.Err(err))
	}
}
