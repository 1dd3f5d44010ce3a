package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusglobal/internal/session"
)

func TestCredentials_Valid(t *testing.T) {
	assert.True(t, session.Credentials{AccessToken: "a", RefreshToken: "r"}.Valid())
	assert.False(t, session.Credentials{AccessToken: "a"}.Valid())
	assert.False(t, session.Credentials{RefreshToken: "r"}.Valid())
	assert.False(t, session.Credentials{}.Valid())
}

func TestNew(t *testing.T) {
	user := session.User{ID: "u1", Email: "ana@nexus.test", Role: session.Role{Code: "CLI", Name: "Cliente"}}

	s, err := session.New(user, session.Credentials{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, user, s.User())
	assert.True(t, s.Active())

	_, err = session.New(user, session.Credentials{AccessToken: "a"})
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
}

func TestSession_Replace(t *testing.T) {
	s, err := session.New(session.User{ID: "u1"}, session.Credentials{AccessToken: "a1", RefreshToken: "r1"})
	require.NoError(t, err)
	s.MarkError(session.TagRefreshAccessTokenError)

	t.Run("partial pair is rejected and nothing changes", func(t *testing.T) {
		err := s.Replace(session.Credentials{AccessToken: "a2"})

		assert.ErrorIs(t, err, session.ErrInvalidCredentials)
		assert.Equal(t, session.Credentials{AccessToken: "a1", RefreshToken: "r1"}, s.Credentials())
		assert.Equal(t, session.TagRefreshAccessTokenError, s.Error())
	})

	t.Run("full pair replaces both tokens and clears tag", func(t *testing.T) {
		require.NoError(t, s.Replace(session.Credentials{AccessToken: "a2", RefreshToken: "r2"}))

		assert.Equal(t, session.Credentials{AccessToken: "a2", RefreshToken: "r2"}, s.Credentials())
		assert.Equal(t, session.TagNone, s.Error())
	})
}

func TestSession_MarkErrorKeepsTokens(t *testing.T) {
	s, err := session.New(session.User{ID: "u1"}, session.Credentials{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)

	s.MarkError(session.TagInvalidTokenError)

	assert.Equal(t, session.TagInvalidTokenError, s.Error())
	assert.ErrorIs(t, s.Error().Err(), session.ErrInvalidToken)
	assert.Equal(t, "a", s.Credentials().AccessToken)
	assert.False(t, s.Active())
}

func TestSession_Clear(t *testing.T) {
	s, err := session.New(session.User{ID: "u1"}, session.Credentials{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)
	s.MarkError(session.TagRefreshAccessTokenError)

	s.Clear()

	assert.Equal(t, session.Credentials{}, s.Credentials())
	assert.Equal(t, session.TagNone, s.Error())
	assert.False(t, s.Active())
}

func TestSnapshotRestore(t *testing.T) {
	s, err := session.New(session.User{ID: "u1", Nickname: "ana"}, session.Credentials{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)
	s.MarkError(session.TagRefreshAccessTokenError)

	restored, err := session.Restore(s.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, s.Snapshot(), restored.Snapshot())

	_, err = session.Restore(session.Snapshot{})
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestErrorTag_Err(t *testing.T) {
	assert.NoError(t, session.TagNone.Err())
	assert.ErrorIs(t, session.TagRefreshAccessTokenError.Err(), session.ErrRefreshAccessToken)
	assert.ErrorIs(t, session.TagInvalidTokenError.Err(), session.ErrInvalidToken)
	assert.Equal(t, "RefreshAccessTokenError", session.ErrRefreshAccessToken.Error())
}

func TestExpiresAt(t *testing.T) {
	token := mintToken(t, 10*time.Minute)

	exp, err := session.ExpiresAt(token)
	require.NoError(t, err)
	assert.True(t, exp.Equal(testNow.Add(10*time.Minute)))

	_, err = session.ExpiresAt("not-a-jwt")
	assert.Error(t, err)
}

func TestIsStale(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "far from expiry", token: mintToken(t, 10*time.Minute), want: false},
		{name: "just outside skew", token: mintToken(t, 61*time.Second), want: false},
		{name: "inside skew", token: mintToken(t, 30*time.Second), want: true},
		{name: "expired", token: mintToken(t, -time.Hour), want: true},
		{name: "malformed", token: "abc.def", want: true},
		{name: "empty", token: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.IsStale(tt.token, testNow, session.DefaultSkew))
		})
	}
}
