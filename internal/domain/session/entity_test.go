package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsExpired(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New("tok", 42, created)

	assert.False(t, s.IsExpired(created))
	assert.False(t, s.IsExpired(created.Add(61*24*time.Hour)))
	assert.False(t, s.IsExpired(created.Add(MaxAge)), "boundary is inclusive")
	assert.True(t, s.IsExpired(created.Add(MaxAge+time.Millisecond)))
	assert.True(t, s.IsExpired(created.Add(90*24*time.Hour)))
	assert.Equal(t, created.Add(MaxAge), s.ExpiresAt())
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "", NormalizeToken("   "))
	assert.Equal(t, "abc", NormalizeToken(" abc\n"))
}
