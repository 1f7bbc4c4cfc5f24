package player

import (
	"time"

	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// ApplyLogin performs the login bookkeeping: the streak grows by one when
// the previous login fell inside yesterday and is otherwise kept as is. A
// missed day does not reset it. LastLoginAt becomes now.
// Reports whether the streak grew.
func (u *User) ApplyLogin(now time.Time, yesterday timeutil.Window) bool {
	grew := yesterday.Contains(u.LastLoginAt)
	if grew {
		u.StreakDays++
	}
	u.LastLoginAt = now
	return grew
}
