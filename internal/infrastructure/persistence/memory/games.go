package memory

import (
	"context"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
)

// TopicRepository implements topic.Repository.
type TopicRepository struct {
	s *Store
}

func (r *TopicRepository) FindInWindow(_ context.Context, f topic.Filter, fromID, toID int64) (*topic.Topic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("find topic in window"); err != nil {
		return nil, err
	}
	for _, t := range r.s.topics {
		if t.ID > toID {
			break
		}
		if t.ID >= fromID && f.Matches(t) {
			return &t, nil
		}
	}
	return nil, shared.ErrTopicNotFound
}

func (r *TopicRepository) FindFrom(_ context.Context, f topic.Filter, fromID int64) (*topic.Topic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("find topic"); err != nil {
		return nil, err
	}
	for _, t := range r.s.topics {
		if t.ID >= fromID && f.Matches(t) {
			return &t, nil
		}
	}
	return nil, shared.ErrTopicNotFound
}

func (r *TopicRepository) AdjustInterest(_ context.Context, title string, delta int) error {
	return r.adjust("adjust interest", title, func(t *topic.Topic) { t.Interest += delta })
}

func (r *TopicRepository) AdjustDifficulty(_ context.Context, title string, delta int) error {
	return r.adjust("adjust difficulty", title, func(t *topic.Topic) { t.Difficulty += delta })
}

func (r *TopicRepository) Import(_ context.Context, topics []topic.Topic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("import topics"); err != nil {
		return err
	}
	r.s.upsertTopics(topics)
	return nil
}

func (r *TopicRepository) adjust(op, title string, fn func(*topic.Topic)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure(op); err != nil {
		return err
	}
	for i := range r.s.topics {
		if r.s.topics[i].Title == title {
			fn(&r.s.topics[i])
		}
	}
	return nil
}

// GameRepository implements game.Repository.
type GameRepository struct {
	s *Store
}

func (r *GameRepository) Register(_ context.Context, token string, rec game.PlayRecord) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("register game"); err != nil {
		return 0, err
	}
	sess, ok := r.s.sessions[token]
	if !ok {
		return 0, shared.ErrInvalidToken
	}
	u, ok := r.s.users[sess.UserID]
	if !ok {
		return 0, shared.ErrInvalidToken
	}

	r.s.nextPlayID++
	rec.ID = r.s.nextPlayID
	rec.UserID = u.ID
	r.s.plays = append(r.s.plays, rec)
	u.RecordGame(rec.Result())

	return u.ID, nil
}

// DailyChallengeRepository implements game.DailyChallengeRepository.
type DailyChallengeRepository struct {
	s *Store
}

func (r *DailyChallengeRepository) GetByDay(_ context.Context, day time.Time) (*game.DailyChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("get daily challenge"); err != nil {
		return nil, err
	}
	dc, ok := r.s.challenges[dayKey(day)]
	if !ok {
		return nil, shared.ErrNoDailyChallenge
	}
	return &dc, nil
}

func (r *DailyChallengeRepository) Create(_ context.Context, dc *game.DailyChallenge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("create daily challenge"); err != nil {
		return err
	}
	key := dayKey(dc.Day)
	if _, exists := r.s.challenges[key]; exists {
		return shared.ErrDailyChallengeExists
	}
	r.s.challenges[key] = *dc
	return nil
}

func (r *DailyChallengeRepository) AdjustFun(_ context.Context, day time.Time, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("adjust daily challenge fun"); err != nil {
		return err
	}
	key := dayKey(day)
	if dc, ok := r.s.challenges[key]; ok {
		dc.Fun += delta
		r.s.challenges[key] = dc
	}
	return nil
}
