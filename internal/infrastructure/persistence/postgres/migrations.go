package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration is one forward schema step.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Migrator applies the embedded migrations in version order.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator over the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: Migrations(),
		tableName:  "schema_migrations",
	}
}

// Migrate applies all pending migrations, each in its own transaction.
// It returns the number of migrations applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	_, err := m.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, m.tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := m.conn.Query(ctx, fmt.Sprintf("SELECT version FROM %s", m.tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("failed to scan applied migrations: %w", err)
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	count := 0
	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName),
				mig.Version, mig.Name,
			)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
		count++
	}

	return count, nil
}

// Migrations returns the embedded schema history.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users_and_sessions", UpSQL: migration001Up},
		{Version: 2, Name: "create_topics", UpSQL: migration002Up},
		{Version: 3, Name: "create_play_records", UpSQL: migration003Up},
		{Version: 4, Name: "create_daily_challenges", UpSQL: migration004Up},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS AND SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    avatar_id INTEGER NOT NULL DEFAULT 0,
    joined_at TIMESTAMPTZ NOT NULL,
    last_login_at TIMESTAMPTZ NOT NULL,
    streak_days INTEGER NOT NULL DEFAULT 0,
    score BIGINT NOT NULL DEFAULT 0,
    games_played INTEGER NOT NULL DEFAULT 0,
    pages_seen BIGINT NOT NULL DEFAULT 0,
    easy_games INTEGER NOT NULL DEFAULT 0,
    medium_games INTEGER NOT NULL DEFAULT 0,
    hard_games INTEGER NOT NULL DEFAULT 0,
    random_page_games INTEGER NOT NULL DEFAULT 0,
    daily_challenge_games INTEGER NOT NULL DEFAULT 0,
    daily_challenge_podium INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: TOPICS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS topics (
    id BIGINT PRIMARY KEY,
    title TEXT NOT NULL,
    interest INTEGER NOT NULL DEFAULT 0,
    difficulty INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_topics_title ON topics(title);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PLAY RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS play_records (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    from_page TEXT NOT NULL,
    to_page TEXT NOT NULL,
    mode SMALLINT NOT NULL,
    score BIGINT NOT NULL,
    total_time BIGINT NOT NULL,
    path_length INTEGER NOT NULL,
    played_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_play_records_user_date ON play_records(user_id, played_at);
CREATE INDEX IF NOT EXISTS idx_play_records_mode_date ON play_records(mode, played_at);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: DAILY CHALLENGES
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS daily_challenges (
    day TIMESTAMPTZ PRIMARY KEY,
    start_page TEXT NOT NULL,
    end_page TEXT NOT NULL,
    difficulty INTEGER NOT NULL DEFAULT 0,
    fun INTEGER NOT NULL DEFAULT 0
);
`
