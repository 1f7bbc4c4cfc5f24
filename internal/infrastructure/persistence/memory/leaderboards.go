package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// LeaderboardRepository implements leaderboard.Repository.
type LeaderboardRepository struct {
	s *Store
}

func playValue(p game.PlayRecord, m leaderboard.Metric) (int64, error) {
	switch m {
	case leaderboard.MetricScore:
		return p.Score, nil
	case leaderboard.MetricPathLength:
		return int64(p.PathLength), nil
	case leaderboard.MetricTotalTime:
		return p.TotalTime, nil
	default:
		return 0, fmt.Errorf("daily metric %q: %w", m, shared.ErrInvalidInput)
	}
}

func userValue(u *player.User, m leaderboard.Metric) (int64, error) {
	switch m {
	case leaderboard.MetricScore:
		return u.Score, nil
	case leaderboard.MetricStreakDays:
		return int64(u.StreakDays), nil
	case leaderboard.MetricGamesPlayed:
		return int64(u.GamesPlayed), nil
	case leaderboard.MetricPagesSeen:
		return u.PagesSeen, nil
	default:
		return 0, fmt.Errorf("general metric %q: %w", m, shared.ErrInvalidInput)
	}
}

// dailyRecords must be called with s.mu held.
func (r *LeaderboardRepository) dailyRecords(since time.Time, houseName string) []game.PlayRecord {
	var out []game.PlayRecord
	for _, p := range r.s.plays {
		if p.Mode != player.ModeDailyChallenge || p.PlayedAt.Before(since) {
			continue
		}
		u, ok := r.s.users[p.UserID]
		if !ok || u.Name == houseName {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *LeaderboardRepository) DailyTop(_ context.Context, m leaderboard.Metric, since time.Time, houseName string, limit int) ([]leaderboard.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("load daily top"); err != nil {
		return nil, err
	}

	records := r.dailyRecords(since, houseName)
	entries := make([]leaderboard.Entry, 0, len(records))
	for _, p := range records {
		v, err := playValue(p, m)
		if err != nil {
			return nil, err
		}
		u := r.s.users[p.UserID]
		entries = append(entries, leaderboard.Entry{UserID: u.ID, Name: u.Name, AvatarID: u.AvatarID, Value: v})
	}

	leaderboard.SortEntries(entries, m.Order())
	return truncate(entries, limit), nil
}

func (r *LeaderboardRepository) DailyStanding(_ context.Context, m leaderboard.Metric, userID int64, since time.Time, houseName string) (leaderboard.Standing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("load daily standing"); err != nil {
		return leaderboard.Unranked, err
	}

	var own []int64
	for _, p := range r.s.plays {
		if p.UserID == userID && p.Mode == player.ModeDailyChallenge && !p.PlayedAt.Before(since) {
			v, err := playValue(p, m)
			if err != nil {
				return leaderboard.Unranked, err
			}
			own = append(own, v)
		}
	}
	best, ok := leaderboard.Best(own, m.Order())
	if !ok {
		return leaderboard.Unranked, nil
	}

	records := r.dailyRecords(since, houseName)
	values := make([]int64, 0, len(records))
	for _, p := range records {
		v, _ := playValue(p, m)
		values = append(values, v)
	}

	return leaderboard.Standing{Rank: leaderboard.RankAmong(values, best, m.Order()), Value: best}, nil
}

func (r *LeaderboardRepository) GeneralTop(_ context.Context, m leaderboard.Metric, houseName string, limit int) ([]leaderboard.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("load general top"); err != nil {
		return nil, err
	}

	entries := make([]leaderboard.Entry, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.Name == houseName {
			continue
		}
		v, err := userValue(u, m)
		if err != nil {
			return nil, err
		}
		entries = append(entries, leaderboard.Entry{UserID: u.ID, Name: u.Name, AvatarID: u.AvatarID, Value: v})
	}

	leaderboard.SortEntries(entries, m.Order())
	return truncate(entries, limit), nil
}

func (r *LeaderboardRepository) GeneralStanding(_ context.Context, m leaderboard.Metric, userID int64, houseName string) (leaderboard.Standing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.takeFailure("load general standing"); err != nil {
		return leaderboard.Unranked, err
	}

	caller, ok := r.s.users[userID]
	if !ok {
		return leaderboard.Unranked, nil
	}
	own, err := userValue(caller, m)
	if err != nil {
		return leaderboard.Unranked, err
	}

	values := make([]int64, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.Name == houseName {
			continue
		}
		v, _ := userValue(u, m)
		values = append(values, v)
	}

	return leaderboard.Standing{Rank: leaderboard.RankAmong(values, own, m.Order()), Value: own}, nil
}

func truncate(entries []leaderboard.Entry, limit int) []leaderboard.Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
