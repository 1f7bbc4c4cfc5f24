// Package memory implements every repository port in process memory.
// It backs the development server when no DATABASE_URL is configured and
// serves as the data store of package tests. Semantics follow the
// PostgreSQL implementation statement for statement.
package memory

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
)

// ErrTokenCollision is returned when a session token is inserted twice.
var ErrTokenCollision = errors.New("memory: duplicate session token")

// Store holds the five record collections behind one lock, so every
// repository call is atomic.
type Store struct {
	mu sync.RWMutex

	nextUserID int64
	nextPlayID int64

	users      map[int64]*player.User
	sessions   map[string]session.Session
	topics     []topic.Topic // sorted by id
	plays      []game.PlayRecord
	challenges map[int64]game.DailyChallenge // keyed by day in unix millis

	// failNext makes the next repository call fail; tests use it to
	// simulate store outages.
	failNext error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:      make(map[int64]*player.User),
		sessions:   make(map[string]session.Session),
		challenges: make(map[int64]game.DailyChallenge),
	}
}

// SeedTopics adds catalog entries, replacing entries with the same id.
func (s *Store) SeedTopics(topics ...topic.Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertTopics(topics)
}

// upsertTopics must be called with s.mu held for writing.
func (s *Store) upsertTopics(topics []topic.Topic) {
	for _, t := range topics {
		i, found := slices.BinarySearchFunc(s.topics, t.ID, func(e topic.Topic, id int64) int {
			return cmp.Compare(e.ID, id)
		})
		if found {
			s.topics[i] = t
			continue
		}
		s.topics = slices.Insert(s.topics, i, t)
	}
}

// Topic returns a copy of the catalog entry with id, if present.
func (s *Store) Topic(id int64) (topic.Topic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.topics {
		if t.ID == id {
			return t, true
		}
	}
	return topic.Topic{}, false
}

// Plays returns a copy of every play record.
func (s *Store) Plays() []game.PlayRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.plays)
}

// HasSession reports whether the token is stored.
func (s *Store) HasSession(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[token]
	return ok
}

// FailNext makes the next repository call return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// takeFailure must be called with s.mu held for writing.
func (s *Store) takeFailure(op string) error {
	if s.failNext == nil {
		return nil
	}
	err := s.failNext
	s.failNext = nil
	return fmt.Errorf("failed to %s: %w", op, err)
}

// Ping always succeeds.
func (s *Store) Ping() error { return nil }

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s: s} }

func (s *Store) Topics() *TopicRepository { return &TopicRepository{s: s} }

func (s *Store) Games() *GameRepository { return &GameRepository{s: s} }

func (s *Store) DailyChallenges() *DailyChallengeRepository {
	return &DailyChallengeRepository{s: s}
}

func (s *Store) Leaderboards() *LeaderboardRepository { return &LeaderboardRepository{s: s} }

func dayKey(day time.Time) int64 {
	return day.UnixMilli()
}

func (s *Store) userByName(name string) *player.User {
	for _, u := range s.users {
		if u.Name == name {
			return u
		}
	}
	return nil
}

func cloneUser(u *player.User) *player.User {
	c := *u
	return &c
}

var (
	_ player.Repository             = (*UserRepository)(nil)
	_ session.Repository            = (*SessionRepository)(nil)
	_ topic.Repository              = (*TopicRepository)(nil)
	_ game.Repository               = (*GameRepository)(nil)
	_ game.DailyChallengeRepository = (*DailyChallengeRepository)(nil)
	_ leaderboard.Repository        = (*LeaderboardRepository)(nil)
)
