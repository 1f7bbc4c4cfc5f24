package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/application/command"
	"github.com/wikichallenge/wikichallenge-server/internal/application/query"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION PORTS
// ══════════════════════════════════════════════════════════════════════════════

// SessionService is the account side of the game.
type SessionService interface {
	CreateAccount(ctx context.Context, cmd command.CreateAccountCommand) (string, error)
	Login(ctx context.Context, cmd command.LoginCommand) (*command.AuthResult, error)
	AuthenticateByToken(ctx context.Context, token string) (*command.AuthResult, error)
	SaveUserData(ctx context.Context, cmd command.SaveUserDataCommand) error
}

// GameRegistrar records finished rounds.
type GameRegistrar interface {
	Handle(ctx context.Context, cmd command.RegisterGameCommand) error
}

// FeedbackService applies votes.
type FeedbackService interface {
	PathFun(ctx context.Context, cmd command.VoteCommand) error
	PathDifficulty(ctx context.Context, cmd command.VoteCommand) error
	DailyChallengeFun(ctx context.Context, vote topic.Vote) error
}

// PageService samples start and end pages.
type PageService interface {
	Handle(ctx context.Context, q query.GetRandomPageQuery) (topic.Pick, error)
}

// DailyChallengeService reads today's challenge.
type DailyChallengeService interface {
	Handle(ctx context.Context) (*game.DailyChallenge, error)
}

// LeaderboardService builds both boards.
type LeaderboardService interface {
	Daily(ctx context.Context, token string) (*leaderboard.Leaderboard, error)
	General(ctx context.Context, token string) (*leaderboard.Leaderboard, error)
}

// Services bundles everything the event handlers call.
type Services struct {
	Sessions     SessionService
	Games        GameRegistrar
	Feedback     FeedbackService
	Pages        PageService
	Daily        DailyChallengeService
	Leaderboards LeaderboardService
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Register binds every game event to r.
func Register(r *Router, s Services) {
	h := &handlers{s: s}

	r.Handle(EventGetStartPage, h.randomPage)
	r.Handle(EventGetEndPage, h.randomPage)
	r.Handle(EventCreateAccount, h.createAccount)
	r.Handle(EventLogin, h.login)
	r.Handle(EventSessionLogin, h.sessionLogin)
	r.Handle(EventSaveUserData, h.saveUserData)
	r.Handle(EventRegisterGame, h.registerGame)
	r.Notify(EventPathFun, h.pathFun)
	r.Notify(EventPathDifficulty, h.pathDifficulty)
	r.Notify(EventDailyChallengeFun, h.dailyChallengeFun)
	r.Handle(EventGetDailyChallenge, h.dailyChallenge)
	r.Handle(EventGetDailyChallengeLeaderboard, h.dailyLeaderboard)
	r.Handle(EventGetGeneralLeaderboard, h.generalLeaderboard)
}

type handlers struct {
	s Services
}

func (h *handlers) randomPage(ctx context.Context, data json.RawMessage) (any, error) {
	var req pageRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	pick, err := h.s.Pages.Handle(ctx, query.GetRandomPageQuery{
		Interest:   topic.Range{Low: req.GameSettings.InterestLow, High: req.GameSettings.InterestHigh},
		Difficulty: topic.Range{Low: req.GameSettings.DifficultyLow, High: req.GameSettings.DifficultyHigh},
		Exclude:    req.OtherPage,
	})
	if err != nil {
		return nil, err
	}
	return toPageResponse(pick), nil
}

func (h *handlers) createAccount(ctx context.Context, data json.RawMessage) (any, error) {
	var req createAccountRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	token, err := h.s.Sessions.CreateAccount(ctx, command.CreateAccountCommand{
		Name:     req.Name,
		Password: req.Password,
		AvatarID: req.AvatarID,
	})
	if err != nil {
		return nil, err
	}
	return AccountResponse{Success: true, SessionID: token}, nil
}

func (h *handlers) login(ctx context.Context, data json.RawMessage) (any, error) {
	var req loginRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	res, err := h.s.Sessions.Login(ctx, command.LoginCommand{Name: req.Name, Password: req.Password})
	if err != nil {
		return nil, err
	}
	return LoginResponse{Success: true, SessionID: res.Token, Data: toUserView(res.Token, res.View)}, nil
}

func (h *handlers) sessionLogin(ctx context.Context, data json.RawMessage) (any, error) {
	var req sessionRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	res, err := h.s.Sessions.AuthenticateByToken(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return LoginResponse{Success: true, Data: toUserView(res.Token, res.View)}, nil
}

func (h *handlers) saveUserData(ctx context.Context, data json.RawMessage) (any, error) {
	var req saveUserDataRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	err := h.s.Sessions.SaveUserData(ctx, command.SaveUserDataCommand{
		Token: req.SessionID,
		Update: player.ProfileUpdate{
			Name:                 req.Name,
			AvatarID:             req.AvatarID,
			DailyChallengePodium: req.DailyChallengePodium,
		},
	})
	if err != nil {
		return nil, err
	}
	return SuccessResponse{Success: true}, nil
}

func (h *handlers) registerGame(ctx context.Context, data json.RawMessage) (any, error) {
	var req registerGameRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	rec := game.PlayRecord{
		From:       req.PageFrom,
		To:         req.PageTo,
		Mode:       player.Mode(req.GameMode),
		Score:      req.Score,
		TotalTime:  req.TotalTime,
		PathLength: req.PathLength,
	}
	if req.Date > 0 {
		rec.PlayedAt = time.UnixMilli(req.Date)
	}

	if err := h.s.Games.Handle(ctx, command.RegisterGameCommand{Token: req.SessionID, Record: rec}); err != nil {
		return nil, err
	}
	return SuccessResponse{Success: true}, nil
}

func (h *handlers) pathFun(ctx context.Context, data json.RawMessage) (any, error) {
	var req pathFunRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return nil, h.s.Feedback.PathFun(ctx, command.VoteCommand{Title: req.PageTitle, Vote: topic.Vote(req.PathFun)})
}

func (h *handlers) pathDifficulty(ctx context.Context, data json.RawMessage) (any, error) {
	var req pathDifficultyRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return nil, h.s.Feedback.PathDifficulty(ctx, command.VoteCommand{Title: req.PageTitle, Vote: topic.Vote(req.PathDifficulty)})
}

func (h *handlers) dailyChallengeFun(ctx context.Context, data json.RawMessage) (any, error) {
	var req pathFunRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return nil, h.s.Feedback.DailyChallengeFun(ctx, topic.Vote(req.PathFun))
}

func (h *handlers) dailyChallenge(ctx context.Context, _ json.RawMessage) (any, error) {
	dc, err := h.s.Daily.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return DailyChallengeResponse{
		Success:    true,
		StartPage:  dc.StartPage,
		EndPage:    dc.EndPage,
		Difficulty: dc.Difficulty,
	}, nil
}

func (h *handlers) dailyLeaderboard(ctx context.Context, data json.RawMessage) (any, error) {
	var req sessionRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	lb, err := h.s.Leaderboards.Daily(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return toLeaderboardResponse(lb), nil
}

func (h *handlers) generalLeaderboard(ctx context.Context, data json.RawMessage) (any, error) {
	var req sessionRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	lb, err := h.s.Leaderboards.General(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return toLeaderboardResponse(lb), nil
}
