package postgres

import (
	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
)

// Repositories groups every repository sharing one connection.
type Repositories struct {
	Users           *UserRepository
	Sessions        *SessionRepository
	Topics          *TopicRepository
	Games           *GameRepository
	DailyChallenges *DailyChallengeRepository
	Leaderboards    *LeaderboardRepository
}

// NewRepositories builds all repositories over conn.
func NewRepositories(conn *Connection) *Repositories {
	return &Repositories{
		Users:           NewUserRepository(conn),
		Sessions:        NewSessionRepository(conn),
		Topics:          NewTopicRepository(conn),
		Games:           NewGameRepository(conn),
		DailyChallenges: NewDailyChallengeRepository(conn),
		Leaderboards:    NewLeaderboardRepository(conn),
	}
}

var (
	_ player.Repository             = (*UserRepository)(nil)
	_ session.Repository            = (*SessionRepository)(nil)
	_ topic.Repository              = (*TopicRepository)(nil)
	_ game.Repository               = (*GameRepository)(nil)
	_ game.DailyChallengeRepository = (*DailyChallengeRepository)(nil)
	_ leaderboard.Repository        = (*LeaderboardRepository)(nil)
)
