// Package leaderboard contains the ranking rules of the game: which metrics
// are ranked, in which direction, and how a caller's rank is derived when
// several records share a value.
package leaderboard

import (
	"cmp"
	"slices"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank is a 1-based position. Zero means the caller has nothing to rank.
type Rank int

// IsRanked reports whether r is a real position.
func (r Rank) IsRanked() bool {
	return r > 0
}

// Order says which direction of a metric is better.
type Order int

const (
	HigherIsBetter Order = iota
	LowerIsBetter
)

// Better reports whether a strictly beats b.
func (o Order) Better(a, b int64) bool {
	if o == LowerIsBetter {
		return a < b
	}
	return a > b
}

// Metric names a ranked value. The names are part of the protocol.
type Metric string

const (
	// Daily challenge metrics, per play record.
	MetricScore      Metric = "score"
	MetricPathLength Metric = "pathlength"
	MetricTotalTime  Metric = "totaltime"

	// All-time metrics, per user.
	MetricStreakDays  Metric = "streakdays"
	MetricGamesPlayed Metric = "gameplayed"
	MetricPagesSeen   Metric = "pagesseen"
)

// Order returns the direction in which m improves.
func (m Metric) Order() Order {
	switch m {
	case MetricPathLength, MetricTotalTime:
		return LowerIsBetter
	default:
		return HigherIsBetter
	}
}

// Scope distinguishes the two boards.
type Scope string

const (
	ScopeDaily   Scope = "daily"
	ScopeGeneral Scope = "general"
)

// Top list sizes.
const (
	DailyTopSize   = 20
	GeneralTopSize = 100
)

// Metrics returns the ranked metrics of the scope in protocol order.
func (s Scope) Metrics() []Metric {
	if s == ScopeDaily {
		return []Metric{MetricScore, MetricPathLength, MetricTotalTime}
	}
	return []Metric{MetricScore, MetricStreakDays, MetricGamesPlayed, MetricPagesSeen}
}

// TopSize returns the length of the scope's top lists.
func (s Scope) TopSize() int {
	if s == ScopeDaily {
		return DailyTopSize
	}
	return GeneralTopSize
}

// IsValidFor reports whether m is ranked in scope s.
func (m Metric) IsValidFor(s Scope) bool {
	return slices.Contains(s.Metrics(), m)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRIES AND STANDINGS
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one line of a top list. On the daily board a user may appear
// once per qualifying play record.
type Entry struct {
	UserID   int64
	Name     string
	AvatarID int
	Value    int64
}

// Standing is the caller's own line: their value and its rank.
type Standing struct {
	Rank  Rank
	Value int64
}

// Unranked is the standing of a caller without a qualifying value.
var Unranked = Standing{}

// Board is the top list of one metric plus the caller's standing, if any.
type Board struct {
	Metric Metric
	Top    []Entry
	Caller *Standing
}

// Leaderboard groups the boards of one scope.
type Leaderboard struct {
	Scope  Scope
	Boards []Board
}

// Board returns the board of m, or nil.
func (l *Leaderboard) Board(m Metric) *Board {
	for i := range l.Boards {
		if l.Boards[i].Metric == m {
			return &l.Boards[i]
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING RULES
// ══════════════════════════════════════════════════════════════════════════════

// RankAmong ranks caller against values: one plus the number of values
// strictly better. Equal values share the better rank, so with scores
// [100, 100, 90] a caller at 100 is 1st and a caller at 90 is 3rd.
// values may include the caller's own value.
func RankAmong(values []int64, caller int64, o Order) Rank {
	better := 0
	for _, v := range values {
		if o.Better(v, caller) {
			better++
		}
	}
	return Rank(better + 1)
}

// Best returns the best of values under o, false when values is empty.
func Best(values []int64, o Order) (int64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	best := values[0]
	for _, v := range values[1:] {
		if o.Better(v, best) {
			best = v
		}
	}
	return best, true
}

// SortEntries orders entries best first. Ties keep a stable order by user id.
func SortEntries(entries []Entry, o Order) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if a.Value != b.Value {
			if o.Better(a.Value, b.Value) {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
}
