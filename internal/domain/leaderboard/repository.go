package leaderboard

import (
	"context"
	"time"
)

// Repository reads the ranked views. Every query excludes the house account
// named houseName. Daily queries consider daily challenge play records with
// date >= since.
type Repository interface {
	// DailyTop returns the best limit play records for m.
	DailyTop(ctx context.Context, m Metric, since time.Time, houseName string, limit int) ([]Entry, error)

	// DailyStanding ranks the user's best qualifying record for m against all
	// qualifying records. Unranked when the user has none.
	DailyStanding(ctx context.Context, m Metric, userID int64, since time.Time, houseName string) (Standing, error)

	// GeneralTop returns the best limit users for m.
	GeneralTop(ctx context.Context, m Metric, houseName string, limit int) ([]Entry, error)

	// GeneralStanding ranks the user's value for m against every other user.
	// Unranked when the user does not exist.
	GeneralStanding(ctx context.Context, m Metric, userID int64, houseName string) (Standing, error)
}
