package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const userColumns = `
	id, name, password_hash, avatar_id, joined_at, last_login_at, streak_days,
	score, games_played, pages_seen,
	easy_games, medium_games, hard_games, random_page_games, daily_challenge_games,
	daily_challenge_podium`

// UserRepository implements player.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts u and sets u.ID.
func (r *UserRepository) Create(ctx context.Context, u *player.User) error {
	query := `
		INSERT INTO users (name, password_hash, avatar_id, joined_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.conn.QueryRow(ctx, query, u.Name, u.PasswordHash, u.AvatarID, u.JoinedAt, u.LastLoginAt).Scan(&u.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrNameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*player.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByName returns a user by exact name.
func (r *UserRepository) GetByName(ctx context.Context, name string) (*player.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1`, name)
}

// ExistsByName reports whether the name is taken.
func (r *UserRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user name: %w", err)
	}
	return exists, nil
}

// touchUserQuery takes $1 id, $2 now, $3 and $4 yesterday's window and the
// optional profile fields $5 to $7.
const touchUserQuery = `
	UPDATE users SET
		streak_days = streak_days +
			CASE WHEN last_login_at >= $3 AND last_login_at < $4 THEN 1 ELSE 0 END,
		last_login_at = $2,
		name = COALESCE($5, name),
		avatar_id = COALESCE($6, avatar_id),
		daily_challenge_podium = COALESCE($7, daily_challenge_podium)
	WHERE id = $1
	RETURNING ` + userColumns

// Touch applies the streak step, the last-login stamp and the optional
// profile update in one UPDATE.
func (r *UserRepository) Touch(ctx context.Context, id int64, now time.Time, yesterday timeutil.Window, update *player.ProfileUpdate) (*player.User, error) {
	var name *string
	var avatarID, podium *int
	if update != nil {
		name, avatarID, podium = update.Name, update.AvatarID, update.DailyChallengePodium
	}

	row := r.conn.QueryRow(ctx, touchUserQuery, id, now, yesterday.Start, yesterday.End, name, avatarID, podium)
	u, err := scanUser(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		if IsUniqueViolation(err) {
			return nil, shared.ErrNameTaken
		}
		return nil, fmt.Errorf("failed to touch user: %w", err)
	}
	return u, nil
}

// DailyStats aggregates the user's records since the given instant. The
// daily challenge score is the one of the first qualifying record.
func (r *UserRepository) DailyStats(ctx context.Context, id int64, since time.Time) (player.DailyStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(score), 0),
			(SELECT score FROM play_records
			  WHERE user_id = $1 AND played_at >= $2 AND mode = $3
			  ORDER BY id LIMIT 1)
		FROM play_records
		WHERE user_id = $1 AND played_at >= $2
	`

	var stats player.DailyStats
	var dailyScore *int64
	err := r.conn.QueryRow(ctx, query, id, since, int(player.ModeDailyChallenge)).
		Scan(&stats.GameCount, &stats.ScoreSum, &dailyScore)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate daily stats: %w", err)
	}
	if dailyScore != nil {
		stats.DailyChallengeDone = true
		stats.DailyChallengeScore = *dailyScore
	}
	return stats, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*player.User, error) {
	u, err := scanUser(r.conn.QueryRow(ctx, query, arg))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*player.User, error) {
	var u player.User
	err := row.Scan(
		&u.ID, &u.Name, &u.PasswordHash, &u.AvatarID, &u.JoinedAt, &u.LastLoginAt, &u.StreakDays,
		&u.Score, &u.GamesPlayed, &u.PagesSeen,
		&u.Modes.Easy, &u.Modes.Medium, &u.Modes.Hard, &u.Modes.RandomPage, &u.Modes.DailyChallenge,
		&u.DailyChallengePodium,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository for PostgreSQL.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	_, err := r.conn.Exec(ctx,
		`INSERT INTO sessions (token, user_id, created_at) VALUES ($1, $2, $3)`,
		s.Token, s.UserID, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get returns shared.ErrInvalidToken for an unknown token.
func (r *SessionRepository) Get(ctx context.Context, token string) (*session.Session, error) {
	var s session.Session
	err := r.conn.QueryRow(ctx,
		`SELECT token, user_id, created_at FROM sessions WHERE token = $1`, token,
	).Scan(&s.Token, &s.UserID, &s.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// Delete removes a session. Unknown tokens are ignored.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
