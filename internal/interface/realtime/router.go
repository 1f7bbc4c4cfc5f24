package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER TYPES
// ══════════════════════════════════════════════════════════════════════════════

// HandlerFunc processes one event payload. The returned value is sent back
// under the same event name for request/response events.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Emitter delivers an outbound event to one connection.
type Emitter interface {
	Emit(event string, payload any)
}

type route struct {
	handle HandlerFunc
	// reply is false for fire-and-forget events: no answer, not even on failure.
	reply bool
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// Router maps event names to handlers.
type Router struct {
	mu     sync.RWMutex
	routes map[string]route
	log    *logger.Logger
}

// NewRouter creates an empty router.
func NewRouter(log *logger.Logger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{
		routes: make(map[string]route),
		log:    log.Named("router"),
	}
}

// Handle registers a request/response event.
func (r *Router) Handle(event string, h HandlerFunc) {
	r.register(event, route{handle: h, reply: true})
}

// Notify registers a fire-and-forget event.
func (r *Router) Notify(event string, h HandlerFunc) {
	r.register(event, route{handle: h})
}

func (r *Router) register(event string, rt route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[event] = rt
}

// Events returns the registered event names.
func (r *Router) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	return names
}

// Dispatch runs the handler of env.Event and emits its outcome. Unknown
// events are logged and ignored.
func (r *Router) Dispatch(ctx context.Context, env Envelope, out Emitter) {
	r.mu.RLock()
	rt, ok := r.routes[env.Event]
	r.mu.RUnlock()

	log := r.log.With(logger.Event(env.Event))
	if c, ok := out.(interface{ ID() string }); ok {
		log = log.With(logger.ConnID(c.ID()))
	}
	if !ok {
		log.Warn("unknown event ignored")
		return
	}

	start := time.Now()
	payload, err := r.run(ctx, rt, env)
	if err != nil {
		code := CodeFor(err)
		if code.IsExpected() {
			log.Debug("event rejected", logger.Code(int(code)), logger.Err(err))
		} else {
			log.Error("event failed", logger.Code(int(code)), logger.Err(err), logger.Latency(time.Since(start)))
		}
		if rt.reply {
			out.Emit(env.Event, Failure{Success: false, Code: code})
		}
		return
	}

	log.Debug("event handled", logger.Latency(time.Since(start)))
	if rt.reply && payload != nil {
		out.Emit(env.Event, payload)
	}
}

// run invokes the handler and turns a panic into an error.
func (r *Router) run(ctx context.Context, rt route, env Envelope) (payload any, err error) {
	defer func() {
		if p := recover(); p != nil {
			payload, err = nil, fmt.Errorf("panic in %s handler: %v", env.Event, p)
		}
	}()
	return rt.handle(ctx, env.Data)
}
