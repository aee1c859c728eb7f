package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tabzpay/progress-sub002/internal/auth"
)

func TestProviderStartsLoading(t *testing.T) {
	p := NewProvider()
	require.True(t, p.Loading())
	_, ok := p.Current()
	require.False(t, ok)
}

func TestRestoreValidToken(t *testing.T) {
	token, expiresAt, err := auth.NewTokenManager("secret", "").Issue(5)
	require.NoError(t, err)

	p := NewProvider()
	p.Restore(token)

	require.False(t, p.Loading())
	s, ok := p.Current()
	require.True(t, ok)
	require.Equal(t, 5, s.UserID)
	require.WithinDuration(t, expiresAt, s.ExpiresAt, time.Second)
}

func TestRestoreBadTokenResolvesEmpty(t *testing.T) {
	p := NewProvider()
	p.Restore("garbage")

	require.False(t, p.Loading())
	_, ok := p.Current()
	require.False(t, ok)
}

func TestCurrentHonoursExpiry(t *testing.T) {
	p := NewProvider()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	p.Resolve(&Session{Token: "t", UserID: 1, ExpiresAt: now.Add(time.Minute)})

	_, ok := p.Current()
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = p.Current()
	require.False(t, ok)
}

func TestSignOut(t *testing.T) {
	p := NewProvider()
	p.Resolve(&Session{UserID: 1})
	p.SignOut()

	_, ok := p.Current()
	require.False(t, ok)
	require.False(t, p.Loading())
}
