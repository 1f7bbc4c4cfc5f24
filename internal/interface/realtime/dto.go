package realtime

import (
	"time"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUESTS
// Field names follow the client protocol; timestamps are epoch milliseconds.
// ══════════════════════════════════════════════════════════════════════════════

type gameSettings struct {
	InterestLow    int `json:"interestLow"`
	InterestHigh   int `json:"interestHigh"`
	DifficultyLow  int `json:"difficultyLow"`
	DifficultyHigh int `json:"difficultyHigh"`
}

type pageRequest struct {
	GameSettings gameSettings `json:"gamesettings"`
	OtherPage    string       `json:"otherpage"`
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	AvatarID int    `json:"avatarid"`
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type sessionRequest struct {
	SessionID string `json:"sessionid"`
}

type saveUserDataRequest struct {
	SessionID            string  `json:"sessionid"`
	Name                 *string `json:"name"`
	AvatarID             *int    `json:"avatarid"`
	DailyChallengePodium *int    `json:"daylichallengepodium"`
}

type registerGameRequest struct {
	SessionID  string `json:"sessionid"`
	PageFrom   string `json:"pagefrom"`
	PageTo     string `json:"pageto"`
	GameMode   int    `json:"gamemode"`
	Score      int64  `json:"score"`
	TotalTime  int64  `json:"totaltime"`
	Date       int64  `json:"date"`
	PathLength int    `json:"pathlength"`
}

type pathFunRequest struct {
	PageTitle string `json:"pagetitle"`
	PathFun   int    `json:"pathFun"`
}

type pathDifficultyRequest struct {
	PageTitle      string `json:"pagetitle"`
	PathDifficulty int    `json:"pathDifficulty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// Failure is the reply of every request/response event that did not succeed.
type Failure struct {
	Success bool `json:"success"`
	Code    Code `json:"code"`
}

// PageResponse is a sampled start or end page.
type PageResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	LessAccurate bool   `json:"lessaccurate"`
}

// AccountResponse answers createAccount.
type AccountResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionid"`
}

// LoginResponse answers login and sessionlogin. SessionID is only set for
// a credential login.
type LoginResponse struct {
	Success   bool      `json:"success"`
	SessionID string    `json:"sessionid,omitempty"`
	Data      *UserView `json:"data"`
}

// SuccessResponse carries nothing but the outcome.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// DailyChallengeResponse answers getDailyChallenge.
type DailyChallengeResponse struct {
	Success    bool   `json:"success"`
	StartPage  string `json:"startpage"`
	EndPage    string `json:"endpage"`
	Difficulty int    `json:"difficulty"`
}

// LeaderboardResponse maps metric names to boards.
type LeaderboardResponse struct {
	Success bool                `json:"success"`
	Result  map[string]BoardDTO `json:"result"`
}

// BoardDTO is one metric's top list plus the caller's line.
type BoardDTO struct {
	Top    []EntryDTO `json:"top"`
	Caller *CallerDTO `json:"caller,omitempty"`
}

// EntryDTO is one top list line.
type EntryDTO struct {
	Name     string `json:"name"`
	AvatarID int    `json:"avatarid"`
	Value    int64  `json:"value"`
}

// CallerDTO is the caller's rank; 0 means unranked.
type CallerDTO struct {
	UserRank int   `json:"userrank"`
	Value    int64 `json:"value"`
}

// UserView is the authenticated user as the client stores it.
type UserView struct {
	SessionID            string `json:"sessionid"`
	AvatarID             int    `json:"avatarid"`
	Name                 string `json:"name"`
	JoinDate             int64  `json:"joindate"`
	DailyChallengePlayed int    `json:"dailychallengeplayed"`
	EasyGame             int    `json:"easygame"`
	MediumGame           int    `json:"mediumgame"`
	HardGame             int    `json:"hardgame"`
	RandomPageGame       int    `json:"randompagegame"`
	GamePlayed           int    `json:"gameplayed"`
	Score                int64  `json:"score"`
	PagesSeen            int64  `json:"pagesseen"`
	DailyChallengePodium int    `json:"daylichallengepodium"`
	StreakDays           int    `json:"streakdays"`
	LastLogin            int64  `json:"lastlogin"`
	TodayGameCount       int    `json:"todaygamecount"`
	TodayScoreCount      int64  `json:"todayscorecount"`
	DailyChallengeDone   bool   `json:"dailychallengedone"`
	DailyChallengeScore  int64  `json:"dailychallengescore"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MAPPERS
// ══════════════════════════════════════════════════════════════════════════════

func epochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func toUserView(token string, v *player.View) *UserView {
	if v == nil {
		return nil
	}
	return &UserView{
		SessionID:            token,
		AvatarID:             v.AvatarID,
		Name:                 v.Name,
		JoinDate:             epochMillis(v.JoinedAt),
		DailyChallengePlayed: v.Modes.DailyChallenge,
		EasyGame:             v.Modes.Easy,
		MediumGame:           v.Modes.Medium,
		HardGame:             v.Modes.Hard,
		RandomPageGame:       v.Modes.RandomPage,
		GamePlayed:           v.GamesPlayed,
		Score:                v.Score,
		PagesSeen:            v.PagesSeen,
		DailyChallengePodium: v.DailyChallengePodium,
		StreakDays:           v.StreakDays,
		LastLogin:            epochMillis(v.LastLoginAt),
		TodayGameCount:       v.Today.GameCount,
		TodayScoreCount:      v.Today.ScoreSum,
		DailyChallengeDone:   v.Today.DailyChallengeDone,
		DailyChallengeScore:  v.Today.DailyChallengeScore,
	}
}

func toPageResponse(p topic.Pick) PageResponse {
	return PageResponse{ID: p.ID, Title: p.Title, LessAccurate: p.LessAccurate}
}

func toLeaderboardResponse(lb *leaderboard.Leaderboard) LeaderboardResponse {
	resp := LeaderboardResponse{Success: true, Result: make(map[string]BoardDTO, len(lb.Boards))}
	for _, b := range lb.Boards {
		dto := BoardDTO{Top: make([]EntryDTO, 0, len(b.Top))}
		for _, e := range b.Top {
			dto.Top = append(dto.Top, EntryDTO{Name: e.Name, AvatarID: e.AvatarID, Value: e.Value})
		}
		if b.Caller != nil {
			dto.Caller = &CallerDTO{UserRank: int(b.Caller.Rank), Value: b.Caller.Value}
		}
		resp.Result[string(b.Metric)] = dto
	}
	return resp
}
