package memory

import (
	"context"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// UserRepository implements player.Repository.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, u *player.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("create user"); err != nil {
		return err
	}
	if r.s.userByName(u.Name) != nil {
		return shared.ErrNameTaken
	}

	r.s.nextUserID++
	u.ID = r.s.nextUserID
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*player.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("get user"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByName(_ context.Context, name string) (*player.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("get user by name"); err != nil {
		return nil, err
	}
	u := r.s.userByName(name)
	if u == nil {
		return nil, shared.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("check user name"); err != nil {
		return false, err
	}
	return r.s.userByName(name) != nil, nil
}

// Touch mirrors the single UPDATE of the PostgreSQL repository.
func (r *UserRepository) Touch(_ context.Context, id int64, now time.Time, yesterday timeutil.Window, update *player.ProfileUpdate) (*player.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("touch user"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	if update != nil && update.Name != nil {
		if other := r.s.userByName(*update.Name); other != nil && other.ID != id {
			return nil, shared.ErrNameTaken
		}
	}

	u.ApplyLogin(now, yesterday)
	update.Apply(u)

	return cloneUser(u), nil
}

func (r *UserRepository) DailyStats(_ context.Context, id int64, since time.Time) (player.DailyStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var stats player.DailyStats
	if err := r.s.takeFailure("aggregate daily stats"); err != nil {
		return stats, err
	}

	for _, p := range r.s.plays {
		if p.UserID != id || p.PlayedAt.Before(since) {
			continue
		}
		stats.GameCount++
		stats.ScoreSum += p.Score
		if p.Mode == player.ModeDailyChallenge && !stats.DailyChallengeDone {
			stats.DailyChallengeDone = true
			stats.DailyChallengeScore = p.Score
		}
	}
	return stats, nil
}

// SessionRepository implements session.Repository.
type SessionRepository struct {
	s *Store
}

func (r *SessionRepository) Create(_ context.Context, sess *session.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("create session"); err != nil {
		return err
	}
	if _, exists := r.s.sessions[sess.Token]; exists {
		return ErrTokenCollision
	}
	r.s.sessions[sess.Token] = *sess
	return nil
}

func (r *SessionRepository) Get(_ context.Context, token string) (*session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("get session"); err != nil {
		return nil, err
	}
	sess, ok := r.s.sessions[token]
	if !ok {
		return nil, shared.ErrInvalidToken
	}
	return &sess, nil
}

func (r *SessionRepository) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("delete session"); err != nil {
		return err
	}
	delete(r.s.sessions, token)
	return nil
}
