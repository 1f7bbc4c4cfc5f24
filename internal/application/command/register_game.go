package command

import (
	"context"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// RegisterGameCommand records one finished round for the owner of Token.
type RegisterGameCommand struct {
	Token  string
	Record game.PlayRecord
}

// Validate checks the command.
func (c RegisterGameCommand) Validate() error {
	if session.NormalizeToken(c.Token) == "" {
		return shared.ErrInvalidToken
	}
	return c.Record.Validate()
}

// RegisterGameHandler appends play records and updates the owner's totals.
type RegisterGameHandler struct {
	games game.Repository
	now   Clock
	log   *logger.Logger
}

// NewRegisterGameHandler creates a handler.
func NewRegisterGameHandler(games game.Repository, clock Clock, log *logger.Logger) *RegisterGameHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterGameHandler{
		games: games,
		now:   clock.orSystem(),
		log:   log.Named("register_game"),
	}
}

// Handle stores the record and the counter update in one transaction.
// A record without a date is stamped with the server's clock.
func (h *RegisterGameHandler) Handle(ctx context.Context, cmd RegisterGameCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	rec := cmd.Record
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = h.now()
	}

	userID, err := h.games.Register(ctx, session.NormalizeToken(cmd.Token), rec)
	if err != nil {
		return err
	}

	h.log.Debug("game registered",
		logger.UserID(userID),
		logger.String("mode", rec.Mode.String()),
		logger.Int64("score", rec.Score),
	)
	return nil
}
