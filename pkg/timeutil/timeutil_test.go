package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodayKey(t *testing.T) {
	t.Run("utc", func(t *testing.T) {
		now := time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)
		key := TodayKey(now, 0)
		assert.True(t, key.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("positive offset crosses into the next local day", func(t *testing.T) {
		// 22:00 UTC is 01:00 next day at UTC+3.
		now := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
		key := TodayKey(now, 3)
		assert.True(t, key.Equal(time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)))
	})

	t.Run("negative offset stays on the previous local day", func(t *testing.T) {
		now := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
		key := TodayKey(now, -5)
		assert.True(t, key.Equal(time.Date(2024, 3, 9, 5, 0, 0, 0, time.UTC)))
	})

	t.Run("pure in the instant", func(t *testing.T) {
		now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		assert.True(t, TodayKey(now, 2).Equal(TodayKey(now.In(time.Local), 2)))
	})
}

func TestYesterday(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"late yesterday", time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), true},
		{"early yesterday", time.Date(2024, 3, 9, 0, 1, 0, 0, time.UTC), true},
		{"earlier today", time.Date(2024, 3, 10, 0, 10, 0, 0, time.UTC), false},
		{"two days ago", time.Date(2024, 3, 8, 23, 59, 0, 0, time.UTC), false},
		{"month boundary", time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Yesterday(now, 0).Contains(tt.t))
		})
	}

	t.Run("month boundary with offset", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
		last := time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)
		assert.True(t, Yesterday(now, 0).Contains(last))
		assert.False(t, Yesterday(now, -2).Contains(last))
	})
}

func TestWindows(t *testing.T) {
	now := time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC)

	today := Today(now, 0)
	assert.True(t, today.Contains(now))
	assert.False(t, today.Contains(today.End))
	assert.True(t, Tomorrow(now, 0).Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, Yesterday(now, 0).End.Equal(today.Start))
}
