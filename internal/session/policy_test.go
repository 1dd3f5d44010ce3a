package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusglobal/internal/session"
)

type countingRefresher struct {
	calls atomic.Int32
	fn    func(ctx context.Context, refreshToken string) (session.Credentials, error)
}

func (c *countingRefresher) Refresh(ctx context.Context, refreshToken string) (session.Credentials, error) {
	c.calls.Add(1)
	return c.fn(ctx, refreshToken)
}

func newSession(t *testing.T, access, refresh string) *session.Session {
	t.Helper()
	s, err := session.New(session.User{ID: "u1"}, session.Credentials{AccessToken: access, RefreshToken: refresh})
	require.NoError(t, err)
	return s
}

func TestPolicy_FreshTokenIsNotRefreshed(t *testing.T) {
	refresher := &countingRefresher{fn: func(context.Context, string) (session.Credentials, error) {
		return session.Credentials{}, errors.New("must not be called")
	}}
	policy := session.NewPolicy(refresher, session.WithClock(clock))
	access := mintToken(t, 10*time.Minute)
	s := newSession(t, access, "r1")

	require.NoError(t, policy.Ensure(context.Background(), s))

	assert.Equal(t, int32(0), refresher.calls.Load())
	assert.Equal(t, access, s.Credentials().AccessToken)
}

func TestPolicy_StaleTokenIsRefreshedOnce(t *testing.T) {
	tests := []struct {
		name   string
		access string
	}{
		{name: "inside skew", access: mintToken(t, 30*time.Second)},
		{name: "expired", access: mintToken(t, -time.Hour)},
		{name: "malformed", access: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh := mintToken(t, time.Hour)
			refresher := &countingRefresher{fn: func(_ context.Context, refreshToken string) (session.Credentials, error) {
				assert.Equal(t, "r1", refreshToken)
				return session.Credentials{AccessToken: fresh, RefreshToken: "r2"}, nil
			}}
			policy := session.NewPolicy(refresher, session.WithClock(clock))
			s := newSession(t, tt.access, "r1")

			require.NoError(t, policy.Ensure(context.Background(), s))
			require.NoError(t, policy.Ensure(context.Background(), s))

			assert.Equal(t, int32(1), refresher.calls.Load())
			assert.Equal(t, session.Credentials{AccessToken: fresh, RefreshToken: "r2"}, s.Credentials())
			assert.Equal(t, session.TagNone, s.Error())
		})
	}
}

func TestPolicy_RefreshFailureTagsSession(t *testing.T) {
	backendErr := errors.New("refresh token revoked")
	refresher := &countingRefresher{fn: func(context.Context, string) (session.Credentials, error) {
		return session.Credentials{}, backendErr
	}}
	policy := session.NewPolicy(refresher, session.WithClock(clock))
	stale := mintToken(t, -time.Minute)
	s := newSession(t, stale, "r1")

	err := policy.Ensure(context.Background(), s)

	assert.ErrorIs(t, err, session.ErrRefreshAccessToken)
	assert.ErrorIs(t, err, backendErr)
	assert.Equal(t, session.TagRefreshAccessTokenError, s.Error())
	assert.Equal(t, session.Credentials{AccessToken: stale, RefreshToken: "r1"}, s.Credentials(), "old tokens are kept")

	err = policy.Ensure(context.Background(), s)
	assert.ErrorIs(t, err, session.ErrRefreshAccessToken)
	assert.Equal(t, int32(1), refresher.calls.Load(), "tagged session is never refreshed again")
}

func TestPolicy_UnusableRefreshResult(t *testing.T) {
	tests := []struct {
		name  string
		creds session.Credentials
	}{
		{name: "empty pair", creds: session.Credentials{}},
		{name: "missing refresh token", creds: session.Credentials{AccessToken: "x"}},
		{name: "undecodable access token", creds: session.Credentials{AccessToken: "not-a-jwt", RefreshToken: "r2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &countingRefresher{fn: func(context.Context, string) (session.Credentials, error) {
				return tt.creds, nil
			}}
			policy := session.NewPolicy(refresher, session.WithClock(clock))
			stale := mintToken(t, -time.Minute)
			s := newSession(t, stale, "r1")

			err := policy.Ensure(context.Background(), s)

			assert.ErrorIs(t, err, session.ErrInvalidToken)
			assert.Equal(t, session.TagInvalidTokenError, s.Error())
			assert.Equal(t, stale, s.Credentials().AccessToken)
		})
	}
}

func TestPolicy_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	fresh := mintToken(t, time.Hour)
	refresher := &countingRefresher{fn: func(context.Context, string) (session.Credentials, error) {
		<-release
		return session.Credentials{AccessToken: fresh, RefreshToken: "r2"}, nil
	}}
	policy := session.NewPolicy(refresher, session.WithClock(clock))
	stale := mintToken(t, -time.Minute)

	const callers = 8
	sessions := make([]*session.Session, callers)
	for i := range sessions {
		s, err := session.Restore(session.Snapshot{
			ID:          "shared",
			Credentials: session.Credentials{AccessToken: stale, RefreshToken: "r1"},
		})
		require.NoError(t, err)
		sessions[i] = s
	}

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = policy.Ensure(context.Background(), sessions[i])
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), refresher.calls.Load())
	for i := range sessions {
		assert.NoError(t, errs[i])
		assert.Equal(t, fresh, sessions[i].Credentials().AccessToken)
	}
}

// rotatingRefresher принимает только текущий токен обновления и выдает новую пару.
func rotatingRefresher(t *testing.T) *countingRefresher {
	var mu sync.Mutex
	current, n := "r1", 1
	return &countingRefresher{fn: func(_ context.Context, refreshToken string) (session.Credentials, error) {
		mu.Lock()
		defer mu.Unlock()
		if refreshToken != current {
			return session.Credentials{}, errors.New("refresh token revoked")
		}
		n++
		current = fmt.Sprintf("r%d", n)
		return session.Credentials{AccessToken: mintToken(t, time.Hour), RefreshToken: current}, nil
	}}
}

func TestPolicy_LateCallerReusesRotatedPair(t *testing.T) {
	tests := []struct {
		name        string
		sameSession bool
	}{
		{name: "same session", sameSession: true},
		{name: "separate snapshots", sameSession: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := rotatingRefresher(t)

			var clockCalls atomic.Int32
			entered := make(chan struct{})
			release := make(chan struct{})
			policy := session.NewPolicy(refresher, session.WithClock(func() time.Time {
				if clockCalls.Add(1) == 1 {
					close(entered)
					<-release
				}
				return testNow
			}))

			stale := mintToken(t, -time.Minute)
			first := newSession(t, stale, "r1")
			late := first
			if !tt.sameSession {
				late = newSession(t, stale, "r1")
			}

			lateErr := make(chan error, 1)
			go func() { lateErr <- policy.Ensure(context.Background(), late) }()

			<-entered
			require.NoError(t, policy.Ensure(context.Background(), first))
			close(release)

			require.NoError(t, <-lateErr)
			assert.Equal(t, int32(1), refresher.calls.Load())
			assert.Equal(t, session.TagNone, late.Error())
			assert.Equal(t, "r2", late.Credentials().RefreshToken)
			assert.Equal(t, first.Credentials(), late.Credentials())
		})
	}
}

func TestPolicy_RotationIsForgottenAfterTTL(t *testing.T) {
	refresher := rotatingRefresher(t)
	now := testNow
	policy := session.NewPolicy(refresher, session.WithClock(func() time.Time { return now }))

	stale := mintToken(t, -time.Minute)
	require.NoError(t, policy.Ensure(context.Background(), newSession(t, stale, "r1")))

	now = testNow.Add(2 * time.Minute)
	late := newSession(t, stale, "r1")
	err := policy.Ensure(context.Background(), late)

	assert.ErrorIs(t, err, session.ErrRefreshAccessToken)
	assert.Equal(t, int32(2), refresher.calls.Load())
	assert.Equal(t, session.TagRefreshAccessTokenError, late.Error())
}

func TestPolicy_RefreshSurvivesCallerCancel(t *testing.T) {
	fresh := mintToken(t, time.Hour)
	refresher := &countingRefresher{fn: func(ctx context.Context, _ string) (session.Credentials, error) {
		if err := ctx.Err(); err != nil {
			return session.Credentials{}, err
		}
		return session.Credentials{AccessToken: fresh, RefreshToken: "r2"}, nil
	}}
	policy := session.NewPolicy(refresher, session.WithClock(clock))
	s := newSession(t, mintToken(t, -time.Minute), "r1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, policy.Ensure(ctx, s))
	assert.Equal(t, fresh, s.Credentials().AccessToken)
}

func TestPolicy_WithSkew(t *testing.T) {
	refresher := &countingRefresher{fn: func(context.Context, string) (session.Credentials, error) {
		return session.Credentials{}, errors.New("unexpected")
	}}
	policy := session.NewPolicy(refresher, session.WithClock(clock), session.WithSkew(10*time.Second))

	assert.False(t, policy.Stale(mintToken(t, 30*time.Second)))
	assert.True(t, policy.Stale(mintToken(t, 5*time.Second)))
}

func TestPolicy_NoSession(t *testing.T) {
	policy := session.NewPolicy(nil)

	assert.ErrorIs(t, policy.Ensure(context.Background(), nil), session.ErrNoSession)

	s := newSession(t, "a", "r")
	s.Clear()
	assert.ErrorIs(t, policy.Ensure(context.Background(), s), session.ErrNoSession)
}
