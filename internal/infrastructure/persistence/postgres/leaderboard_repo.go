package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY
// Ranked views are computed by the database on every call. Column names
// come from fixed whitelists, never from client input.
// ══════════════════════════════════════════════════════════════════════════════

var (
	dailyColumns = map[leaderboard.Metric]string{
		leaderboard.MetricScore:      "p.score",
		leaderboard.MetricPathLength: "p.path_length",
		leaderboard.MetricTotalTime:  "p.total_time",
	}
	generalColumns = map[leaderboard.Metric]string{
		leaderboard.MetricScore:       "score",
		leaderboard.MetricStreakDays:  "streak_days",
		leaderboard.MetricGamesPlayed: "games_played",
		leaderboard.MetricPagesSeen:   "pages_seen",
	}
)

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// ordering returns the ORDER BY direction, the aggregate picking the best
// value and the comparison meaning "strictly better than".
func ordering(m leaderboard.Metric) (dir, best, better string) {
	if m.Order() == leaderboard.LowerIsBetter {
		return "ASC", "MIN", "<"
	}
	return "DESC", "MAX", ">"
}

func column(columns map[leaderboard.Metric]string, m leaderboard.Metric) (string, error) {
	col, ok := columns[m]
	if !ok {
		return "", fmt.Errorf("metric %q: %w", m, shared.ErrInvalidInput)
	}
	return col, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY BUILDERS
// ══════════════════════════════════════════════════════════════════════════════

// dailyTopQuery takes $1 mode, $2 since, $3 house name, $4 limit.
func dailyTopQuery(m leaderboard.Metric) (string, error) {
	col, err := column(dailyColumns, m)
	if err != nil {
		return "", err
	}
	dir, _, _ := ordering(m)

	return fmt.Sprintf(`
		SELECT u.id, u.name, u.avatar_id, %[1]s::BIGINT
		FROM play_records p
		JOIN users u ON u.id = p.user_id
		WHERE p.mode = $1 AND p.played_at >= $2 AND u.name <> $3
		ORDER BY %[1]s %[2]s, u.id
		LIMIT $4
	`, col, dir), nil
}

// dailyStandingQuery takes $1 user id, $2 mode, $3 since, $4 house name.
// Rank is one plus the records strictly better than the user's best.
func dailyStandingQuery(m leaderboard.Metric) (string, error) {
	col, err := column(dailyColumns, m)
	if err != nil {
		return "", err
	}
	_, best, better := ordering(m)

	return fmt.Sprintf(`
		WITH own AS (
			SELECT %[2]s(%[1]s)::BIGINT AS v
			FROM play_records p
			WHERE p.user_id = $1 AND p.mode = $2 AND p.played_at >= $3
		)
		SELECT own.v, (
			SELECT COUNT(*)
			FROM play_records p
			JOIN users u ON u.id = p.user_id
			WHERE p.mode = $2 AND p.played_at >= $3 AND u.name <> $4
			  AND %[1]s %[3]s own.v
		)
		FROM own
	`, col, best, better), nil
}

// generalTopQuery takes $1 house name, $2 limit.
func generalTopQuery(m leaderboard.Metric) (string, error) {
	col, err := column(generalColumns, m)
	if err != nil {
		return "", err
	}
	dir, _, _ := ordering(m)

	return fmt.Sprintf(`
		SELECT id, name, avatar_id, %[1]s::BIGINT
		FROM users
		WHERE name <> $1
		ORDER BY %[1]s %[2]s, id
		LIMIT $2
	`, col, dir), nil
}

// generalStandingQuery takes $1 user id, $2 house name.
func generalStandingQuery(m leaderboard.Metric) (string, error) {
	col, err := column(generalColumns, m)
	if err != nil {
		return "", err
	}
	_, _, better := ordering(m)

	return fmt.Sprintf(`
		SELECT u.%[1]s::BIGINT, (
			SELECT COUNT(*) FROM users o
			WHERE o.name <> $2 AND o.%[1]s %[2]s u.%[1]s
		)
		FROM users u
		WHERE u.id = $1
	`, col, better), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// DailyTop returns the best daily challenge records since the given instant.
func (r *LeaderboardRepository) DailyTop(ctx context.Context, m leaderboard.Metric, since time.Time, houseName string, limit int) ([]leaderboard.Entry, error) {
	query, err := dailyTopQuery(m)
	if err != nil {
		return nil, err
	}
	return r.entries(ctx, query, int(player.ModeDailyChallenge), since, houseName, limit)
}

// DailyStanding ranks the user's best record of today.
func (r *LeaderboardRepository) DailyStanding(ctx context.Context, m leaderboard.Metric, userID int64, since time.Time, houseName string) (leaderboard.Standing, error) {
	query, err := dailyStandingQuery(m)
	if err != nil {
		return leaderboard.Unranked, err
	}

	var value *int64
	var ahead int
	err = r.conn.QueryRow(ctx, query, userID, int(player.ModeDailyChallenge), since, houseName).Scan(&value, &ahead)
	if err != nil {
		return leaderboard.Unranked, fmt.Errorf("failed to rank daily %s: %w", m, err)
	}
	if value == nil {
		return leaderboard.Unranked, nil
	}
	return leaderboard.Standing{Rank: leaderboard.Rank(ahead + 1), Value: *value}, nil
}

// GeneralTop returns the best users for m.
func (r *LeaderboardRepository) GeneralTop(ctx context.Context, m leaderboard.Metric, houseName string, limit int) ([]leaderboard.Entry, error) {
	query, err := generalTopQuery(m)
	if err != nil {
		return nil, err
	}
	return r.entries(ctx, query, houseName, limit)
}

// GeneralStanding ranks the user's value against every non-house user.
func (r *LeaderboardRepository) GeneralStanding(ctx context.Context, m leaderboard.Metric, userID int64, houseName string) (leaderboard.Standing, error) {
	query, err := generalStandingQuery(m)
	if err != nil {
		return leaderboard.Unranked, err
	}

	var value int64
	var ahead int
	err = r.conn.QueryRow(ctx, query, userID, houseName).Scan(&value, &ahead)
	if err != nil {
		if IsNoRows(err) {
			return leaderboard.Unranked, nil
		}
		return leaderboard.Unranked, fmt.Errorf("failed to rank general %s: %w", m, err)
	}
	return leaderboard.Standing{Rank: leaderboard.Rank(ahead + 1), Value: value}, nil
}

func (r *LeaderboardRepository) entries(ctx context.Context, query string, args ...any) ([]leaderboard.Entry, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (leaderboard.Entry, error) {
		var e leaderboard.Entry
		err := row.Scan(&e.UserID, &e.Name, &e.AvatarID, &e.Value)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
	}
	return entries, nil
}
