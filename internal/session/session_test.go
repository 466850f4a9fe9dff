package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(Tokens{AccessToken: "a", RefreshToken: "r"})
	assert.Equal(t, "a", store.Get().AccessToken)

	require.NoError(t, store.Set(Tokens{AccessToken: "b", RefreshToken: "r"}))
	assert.Equal(t, "b", store.Get().AccessToken)

	require.NoError(t, store.Clear())
	assert.True(t, store.Get().Empty())
}

func TestFileStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	store, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.True(t, store.Get().Empty())

	require.NoError(t, store.Set(Tokens{AccessToken: "access", RefreshToken: "refresh"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: "access", RefreshToken: "refresh"}, reopened.Get())

	require.NoError(t, reopened.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.True(t, reopened.Get().Empty())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session file")
}

func TestFileStore_EmptyPath(t *testing.T) {
	_, err := OpenFileStore("")
	assert.Error(t, err)
}

func TestDecide(t *testing.T) {
	current := Tokens{AccessToken: "old", RefreshToken: "refresh-1"}

	tests := []struct {
		name      string
		result    RefreshResult
		want      Tokens
		wantRetry bool
	}{
		{"refresh failed", RefreshResult{OK: false}, current, false},
		{"no access token returned", RefreshResult{OK: true}, current, false},
		{"access only", RefreshResult{OK: true, AccessToken: "new"}, Tokens{AccessToken: "new", RefreshToken: "refresh-1"}, true},
		{"rotated refresh", RefreshResult{OK: true, AccessToken: "new", RefreshToken: "refresh-2"}, Tokens{AccessToken: "new", RefreshToken: "refresh-2"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, retry := Decide(current, tt.result)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRetry, retry)
		})
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	got, ok := AccessTokenExpiry(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = AccessTokenExpiry("opaque-token")
	assert.False(t, ok)

	_, ok = AccessTokenExpiry("")
	assert.False(t, ok)
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Now()

	assert.False(t, NeedsRefresh(Tokens{AccessToken: "opaque", RefreshToken: "r"}, now))
	assert.False(t, NeedsRefresh(Tokens{AccessToken: signedToken(t, now.Add(-time.Hour))}, now), "no refresh token to use")
	assert.True(t, NeedsRefresh(Tokens{RefreshToken: "r"}, now))
	assert.True(t, NeedsRefresh(Tokens{AccessToken: signedToken(t, now.Add(-time.Minute)), RefreshToken: "r"}, now))
	assert.True(t, NeedsRefresh(Tokens{AccessToken: signedToken(t, now.Add(10*time.Second)), RefreshToken: "r"}, now))
	assert.False(t, NeedsRefresh(Tokens{AccessToken: signedToken(t, now.Add(time.Hour)), RefreshToken: "r"}, now))
}
