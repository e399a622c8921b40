package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notes-app/backend/internal/domain"
)

func TestRefreshTokenManager_CreateReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	first, err := f.manager.Create(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, first.UserID)
	assert.False(t, first.Revoked)
	assert.WithinDuration(t, time.Now().Add(DefaultRefreshTTL), first.ExpiresAt, time.Minute)

	second, err := f.manager.Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	got, err := f.manager.FindByValue(ctx, first.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.manager.FindByValue(ctx, second.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
}

func TestRefreshTokenManager_CreateUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.Create(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestRefreshTokenManager_FindByValueEmpty(t *testing.T) {
	f := newFixture(t)
	got, err := f.manager.FindByValue(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRefreshTokenManager_VerifyNotExpiredDeletesExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	token, err := f.manager.Create(ctx, "alice")
	require.NoError(t, err)

	live, err := f.manager.VerifyNotExpired(ctx, token)
	require.NoError(t, err)
	assert.True(t, live)

	f.manager.now = func() time.Time { return time.Now().Add(DefaultRefreshTTL + time.Second) }
	live, err = f.manager.VerifyNotExpired(ctx, token)
	require.NoError(t, err)
	assert.False(t, live)

	got, err := f.manager.FindByValue(ctx, token.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRefreshTokenManager_RevokeAllKeepsRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	token, err := f.manager.Create(ctx, "alice")
	require.NoError(t, err)

	n, err := f.manager.RevokeAll(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.manager.FindByValue(ctx, token.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Revoked)
}

func TestRefreshTokenManager_SweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")
	f.register(t, "bob")

	old, err := f.manager.Create(ctx, "alice")
	require.NoError(t, err)

	f.manager.now = func() time.Time { return time.Now().Add(DefaultRefreshTTL + time.Hour) }
	fresh, err := f.manager.Create(ctx, "bob")
	require.NoError(t, err)

	n, err := f.manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.manager.FindByValue(ctx, old.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.manager.FindByValue(ctx, fresh.Token)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRefreshTokenManager_ConcurrentLoginsLeaveOneToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	const logins = 20
	errs := make([]error, logins)
	issued := make([]string, logins)
	var wg sync.WaitGroup
	for i := range logins {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.auth.Login(ctx, "alice", "pw-alice", LoginMeta{})
			errs[i] = err
			if err == nil {
				issued[i] = resp.RefreshToken
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.countRefreshTokens(t, alice.ID))

	live := 0
	for _, value := range issued {
		got, err := f.manager.FindByValue(ctx, value)
		require.NoError(t, err)
		if got != nil {
			live++
		}
	}
	assert.Equal(t, 1, live)
}
