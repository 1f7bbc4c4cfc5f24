package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoWithData_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var delays []time.Duration

	got, err := DoWithData(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	},
		WithMaxAttempts(5),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) }),
	)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	require.Len(t, delays, 2)
	for _, d := range delays {
		assert.LessOrEqual(t, d, 2*time.Millisecond*11/10)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	bad := errors.New("bad credentials")
	calls := 0

	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(bad)
	}, WithInitialDelay(time.Millisecond))

	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}

func TestDo_ReturnsLastErrorWhenAttemptsRunOut(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("down")
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 1))
	assert.Equal(t, 400*time.Millisecond, backoff(cfg, 3))
	assert.Equal(t, time.Second, backoff(cfg, 10))
}
