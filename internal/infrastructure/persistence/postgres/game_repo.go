package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOPIC REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// TopicRepository implements topic.Repository for PostgreSQL.
type TopicRepository struct {
	conn *Connection
}

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(conn *Connection) *TopicRepository {
	return &TopicRepository{conn: conn}
}

const topicFilter = `
	interest BETWEEN $1 AND $2
	AND difficulty BETWEEN $3 AND $4
	AND ($5 = '' OR title <> $5)`

// FindInWindow returns one matching topic with an id in [fromID, toID].
func (r *TopicRepository) FindInWindow(ctx context.Context, f topic.Filter, fromID, toID int64) (*topic.Topic, error) {
	query := `
		SELECT id, title, interest, difficulty FROM topics
		WHERE ` + topicFilter + ` AND id BETWEEN $6 AND $7
		LIMIT 1
	`
	return r.findOne(ctx, query, filterArgs(f, fromID, toID)...)
}

// FindFrom returns the matching topic with the smallest id >= fromID.
func (r *TopicRepository) FindFrom(ctx context.Context, f topic.Filter, fromID int64) (*topic.Topic, error) {
	query := `
		SELECT id, title, interest, difficulty FROM topics
		WHERE ` + topicFilter + ` AND id >= $6
		ORDER BY id
		LIMIT 1
	`
	return r.findOne(ctx, query, filterArgs(f, fromID)...)
}

// AdjustInterest adds delta to every topic titled title.
func (r *TopicRepository) AdjustInterest(ctx context.Context, title string, delta int) error {
	if _, err := r.conn.Exec(ctx, `UPDATE topics SET interest = interest + $2 WHERE title = $1`, title, delta); err != nil {
		return fmt.Errorf("failed to adjust interest: %w", err)
	}
	return nil
}

// AdjustDifficulty adds delta to every topic titled title.
func (r *TopicRepository) AdjustDifficulty(ctx context.Context, title string, delta int) error {
	if _, err := r.conn.Exec(ctx, `UPDATE topics SET difficulty = difficulty + $2 WHERE title = $1`, title, delta); err != nil {
		return fmt.Errorf("failed to adjust difficulty: %w", err)
	}
	return nil
}

// Import upserts catalog entries in one batch.
func (r *TopicRepository) Import(ctx context.Context, topics []topic.Topic) error {
	batch := &pgx.Batch{}
	for _, t := range topics {
		batch.Queue(`
			INSERT INTO topics (id, title, interest, difficulty) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title,
				interest = EXCLUDED.interest, difficulty = EXCLUDED.difficulty
		`, t.ID, t.Title, t.Interest, t.Difficulty)
	}

	c := r.conn
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if err := c.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to import topics: %w", err)
	}
	return nil
}

func (r *TopicRepository) findOne(ctx context.Context, query string, args ...any) (*topic.Topic, error) {
	var t topic.Topic
	err := r.conn.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Title, &t.Interest, &t.Difficulty)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to find topic: %w", err)
	}
	return &t, nil
}

func filterArgs(f topic.Filter, ids ...int64) []any {
	args := []any{f.Interest.Low, f.Interest.High, f.Difficulty.Low, f.Difficulty.High, f.ExcludeTitle}
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// GameRepository implements game.Repository for PostgreSQL.
type GameRepository struct {
	conn *Connection
}

// NewGameRepository creates a new GameRepository.
func NewGameRepository(conn *Connection) *GameRepository {
	return &GameRepository{conn: conn}
}

// Register statements, run in one transaction.
const (
	lockSessionUserQuery = `
		SELECT u.id FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1
		FOR UPDATE OF u
	`

	insertPlayQuery = `
		INSERT INTO play_records (user_id, from_page, to_page, mode, score, total_time, path_length, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	// addGameQuery takes $1 user id, $2 score, $3 path length, $4 mode.
	addGameQuery = `
		UPDATE users SET
			score = score + $2,
			games_played = games_played + 1,
			pages_seen = pages_seen + $3 + 1,
			easy_games = easy_games + CASE WHEN $4 = 1 THEN 1 ELSE 0 END,
			medium_games = medium_games + CASE WHEN $4 = 2 THEN 1 ELSE 0 END,
			hard_games = hard_games + CASE WHEN $4 = 3 THEN 1 ELSE 0 END,
			random_page_games = random_page_games + CASE WHEN $4 = 4 THEN 1 ELSE 0 END,
			daily_challenge_games = daily_challenge_games + CASE WHEN $4 = 5 THEN 1 ELSE 0 END
		WHERE id = $1
	`
)

// Register resolves the token, appends the record and updates the owner's
// counters in one transaction.
func (r *GameRepository) Register(ctx context.Context, token string, rec game.PlayRecord) (int64, error) {
	var userID int64

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, lockSessionUserQuery, token).Scan(&userID)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrInvalidToken
			}
			return fmt.Errorf("failed to resolve session: %w", err)
		}

		_, err = tx.Exec(ctx, insertPlayQuery, userID, rec.From, rec.To, int(rec.Mode), rec.Score, rec.TotalTime, rec.PathLength, rec.PlayedAt)
		if err != nil {
			return fmt.Errorf("failed to insert play record: %w", err)
		}

		_, err = tx.Exec(ctx, addGameQuery, userID, rec.Score, rec.PathLength, int(rec.Mode))
		if err != nil {
			return fmt.Errorf("failed to update user counters: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY CHALLENGE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// DailyChallengeRepository implements game.DailyChallengeRepository.
type DailyChallengeRepository struct {
	conn *Connection
}

// NewDailyChallengeRepository creates a new DailyChallengeRepository.
func NewDailyChallengeRepository(conn *Connection) *DailyChallengeRepository {
	return &DailyChallengeRepository{conn: conn}
}

// GetByDay returns the challenge keyed by day.
func (r *DailyChallengeRepository) GetByDay(ctx context.Context, day time.Time) (*game.DailyChallenge, error) {
	var dc game.DailyChallenge
	err := r.conn.QueryRow(ctx,
		`SELECT day, start_page, end_page, difficulty, fun FROM daily_challenges WHERE day = $1`, day,
	).Scan(&dc.Day, &dc.StartPage, &dc.EndPage, &dc.Difficulty, &dc.Fun)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNoDailyChallenge
		}
		return nil, fmt.Errorf("failed to get daily challenge: %w", err)
	}
	return &dc, nil
}

// Create stores the day's challenge.
func (r *DailyChallengeRepository) Create(ctx context.Context, dc *game.DailyChallenge) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO daily_challenges (day, start_page, end_page, difficulty, fun)
		VALUES ($1, $2, $3, $4, $5)
	`, dc.Day, dc.StartPage, dc.EndPage, dc.Difficulty, dc.Fun)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDailyChallengeExists
		}
		return fmt.Errorf("failed to create daily challenge: %w", err)
	}
	return nil
}

// AdjustFun adds delta to the day's fun score.
func (r *DailyChallengeRepository) AdjustFun(ctx context.Context, day time.Time, delta int) error {
	if _, err := r.conn.Exec(ctx, `UPDATE daily_challenges SET fun = fun + $2 WHERE day = $1`, day, delta); err != nil {
		return fmt.Errorf("failed to adjust daily challenge fun: %w", err)
	}
	return nil
}
