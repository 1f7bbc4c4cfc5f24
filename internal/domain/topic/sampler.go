package topic

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// SamplerConfig tunes the accuracy/latency tradeoff of Sampler.
// More Attempts raise accuracy and worst-case latency. A wider Window raises
// the hit rate per attempt and lowers the uniformity of each hit.
type SamplerConfig struct {
	// MinID and MaxID bound the catalog's id space.
	MinID int64
	MaxID int64

	// Attempts is the hard ceiling on windowed queries per sample.
	Attempts int

	// Window is the width of each id window [R, R+Window].
	Window int64
}

// DefaultSamplerConfig matches the production catalog.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		MinID:    45204,
		MaxID:    10554407,
		Attempts: 300,
		Window:   40,
	}
}

// Sampler picks an approximately uniform random topic among those matching
// a filter without scanning the catalog: it probes random narrow id windows
// and, once the attempt budget is spent, falls back to the first match at
// or after one last random id.
type Sampler struct {
	finder Finder
	cfg    SamplerConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSampler creates a sampler. A nil src seeds from the runtime's
// random source.
func NewSampler(finder Finder, cfg SamplerConfig, src rand.Source) *Sampler {
	if cfg.Attempts < 0 {
		cfg.Attempts = 0
	}
	if cfg.MaxID < cfg.MinID {
		cfg.MaxID = cfg.MinID
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Sampler{finder: finder, cfg: cfg, rnd: rand.New(src)}
}

// Config returns the effective configuration.
func (s *Sampler) Config() SamplerConfig {
	return s.cfg
}

// Sample returns one topic matching f. A store error on any attempt aborts
// the whole call. Returns shared.ErrTopicNotFound when even the fallback
// finds nothing.
func (s *Sampler) Sample(ctx context.Context, f Filter) (Pick, error) {
	if err := f.Validate(); err != nil {
		return Pick{}, err
	}

	for i := 0; i < s.cfg.Attempts; i++ {
		if err := ctx.Err(); err != nil {
			return Pick{}, err
		}

		from := s.randomID()
		t, err := s.finder.FindInWindow(ctx, f, from, from+s.cfg.Window)
		if err == nil {
			return Pick{Topic: *t}, nil
		}
		if !errors.Is(err, shared.ErrTopicNotFound) {
			return Pick{}, err
		}
	}

	t, err := s.finder.FindFrom(ctx, f, s.randomID())
	if err != nil {
		return Pick{}, err
	}
	return Pick{Topic: *t, LessAccurate: true}, nil
}

func (s *Sampler) randomID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.MinID + s.rnd.Int64N(s.cfg.MaxID-s.cfg.MinID+1)
}
