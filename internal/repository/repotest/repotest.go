// Package repotest holds behavioral tests every store backend must pass.
// Backends call Run from their own _test.go files.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notes-app/backend/internal/domain"
)

// Stores is one backend's set of repositories.
type Stores struct {
	Users       domain.UserRepository
	Tokens      domain.RefreshTokenRepository
	Folders     domain.FolderRepository
	Notes       domain.NoteRepository
	LoginEvents domain.LoginEventRepository
	Tx          domain.Transactor
}

// Run runs every contract as a subtest. newStores is called once per
// subtest; backends sharing a database between calls are fine because
// every contract works on freshly named users.
func Run(t *testing.T, newStores func(t *testing.T) Stores) {
	t.Run("users", func(t *testing.T) { UserRepository(t, newStores(t)) })
	t.Run("refresh tokens", func(t *testing.T) { RefreshTokenRepository(t, newStores(t)) })
	t.Run("folders", func(t *testing.T) { FolderRepository(t, newStores(t)) })
	t.Run("notes", func(t *testing.T) { NoteRepository(t, newStores(t)) })
	t.Run("login events", func(t *testing.T) { LoginEventRepository(t, newStores(t)) })
	t.Run("transactor", func(t *testing.T) { Transactor(t, newStores(t)) })
}

func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func createUser(t *testing.T, s Stores, prefix string) *domain.User {
	t.Helper()
	u := &domain.User{Username: uniqueName(prefix), PasswordHash: "hash"}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func UserRepository(t *testing.T, s Stores) {
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	assert.NotEqual(t, uuid.Nil, alice.ID)

	got, err := s.Users.GetByUsername(ctx, alice.Username)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.WithinDuration(t, alice.CreatedAt, got.CreatedAt, time.Millisecond)

	got, err = s.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.Username, got.Username)

	missing, err := s.Users.GetByUsername(ctx, uniqueName("nobody"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = s.Users.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = s.Users.Create(ctx, &domain.User{Username: alice.Username, PasswordHash: "other"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	require.NoError(t, s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.Users.Lock(ctx, alice.ID)
	}))
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.Users.Lock(ctx, uuid.New())
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func RefreshTokenRepository(t *testing.T, s Stores) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	now := time.Now().UTC()

	live := &domain.RefreshToken{UserID: alice.ID, Token: uuid.NewString(), ExpiresAt: now.Add(time.Hour)}
	expired := &domain.RefreshToken{UserID: alice.ID, Token: uuid.NewString(), ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, s.Tokens.Create(ctx, live))
	require.NoError(t, s.Tokens.Create(ctx, expired))

	got, err := s.Tokens.GetByToken(ctx, expired.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Expired(now))
	assert.False(t, got.Revoked)
	assert.Equal(t, alice.ID, got.UserID)

	n, err := s.Tokens.RevokeByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err = s.Tokens.GetByToken(ctx, live.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Revoked)
	assert.WithinDuration(t, live.ExpiresAt, got.ExpiresAt, time.Millisecond)

	n, err = s.Tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err = s.Tokens.GetByToken(ctx, expired.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Tokens.GetByToken(ctx, live.Token)
	require.NoError(t, err)
	assert.NotNil(t, got, "unexpired rows survive the sweep")

	require.NoError(t, s.Tokens.Delete(ctx, live.ID))
	got, err = s.Tokens.GetByToken(ctx, live.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	again := &domain.RefreshToken{UserID: alice.ID, Token: uuid.NewString(), ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Tokens.Create(ctx, again))
	require.NoError(t, s.Tokens.DeleteByUserID(ctx, alice.ID))
	got, err = s.Tokens.GetByToken(ctx, again.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func FolderRepository(t *testing.T, s Stores) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	work := &domain.Folder{UserID: alice.ID, Name: "Work"}
	require.NoError(t, s.Folders.Create(ctx, work))
	projects := &domain.Folder{UserID: alice.ID, Name: "Projects", ParentID: &work.ID}
	require.NoError(t, s.Folders.Create(ctx, projects))

	t.Run("sibling names are unique per owner and parent", func(t *testing.T) {
		err := s.Folders.Create(ctx, &domain.Folder{UserID: alice.ID, Name: "Work"})
		assert.ErrorIs(t, err, domain.ErrFolderNameTaken)

		require.NoError(t, s.Folders.Create(ctx, &domain.Folder{UserID: bob.ID, Name: "Work"}))
		require.NoError(t, s.Folders.Create(ctx, &domain.Folder{UserID: alice.ID, Name: "Work", ParentID: &projects.ID}))
	})

	t.Run("exists by name", func(t *testing.T) {
		exists, err := s.Folders.ExistsByName(ctx, alice.ID, nil, "Work")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.Folders.ExistsByName(ctx, alice.ID, &work.ID, "Projects")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.Folders.ExistsByName(ctx, alice.ID, nil, "Projects")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("lookups are owner scoped", func(t *testing.T) {
		got, err := s.Folders.GetByIDAndUser(ctx, projects.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, work.ID, *got.ParentID)
		assert.Equal(t, "Work", got.ParentFolderName)

		got, err = s.Folders.GetByIDAndUser(ctx, projects.ID, bob.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("lists", func(t *testing.T) {
		roots, err := s.Folders.ListRoots(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, roots, 1)
		assert.Equal(t, work.ID, roots[0].ID)
		assert.Nil(t, roots[0].ParentID)

		children, err := s.Folders.ListChildren(ctx, alice.ID, work.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, "Projects", children[0].Name)

		children, err = s.Folders.ListChildren(ctx, bob.ID, work.ID)
		require.NoError(t, err)
		assert.NotNil(t, children)
		assert.Empty(t, children)

		all, err := s.Folders.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("update moves to root", func(t *testing.T) {
		projects.ParentID = nil
		require.NoError(t, s.Folders.Update(ctx, projects))

		got, err := s.Folders.GetByIDAndUser(ctx, projects.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.ParentID)
		assert.Empty(t, got.ParentFolderName)

		taken := &domain.Folder{ID: projects.ID, UserID: alice.ID, Name: "Work"}
		assert.ErrorIs(t, s.Folders.Update(ctx, taken), domain.ErrFolderNameTaken)

		foreign := &domain.Folder{ID: projects.ID, UserID: bob.ID, Name: "x"}
		assert.ErrorIs(t, s.Folders.Update(ctx, foreign), domain.ErrFolderNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, s.Folders.Delete(ctx, work.ID, bob.ID), domain.ErrFolderNotFound)
		require.NoError(t, s.Folders.Delete(ctx, work.ID, alice.ID))
		got, err := s.Folders.GetByIDAndUser(ctx, work.ID, alice.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func NoteRepository(t *testing.T, s Stores) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	work := &domain.Folder{UserID: alice.ID, Name: "Work"}
	require.NoError(t, s.Folders.Create(ctx, work))

	todo := &domain.Note{UserID: alice.ID, Title: "Todo", Content: "milk", FolderID: &work.ID}
	require.NoError(t, s.Notes.Create(ctx, todo))
	loose := &domain.Note{UserID: alice.ID, Title: "Loose"}
	require.NoError(t, s.Notes.Create(ctx, loose))

	got, err := s.Notes.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "milk", got.Content)
	assert.Equal(t, "Work", got.FolderName)
	assert.Equal(t, alice.ID, got.UserID)

	all, err := s.Notes.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	root, err := s.Notes.ListRoot(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, loose.ID, root[0].ID)

	inWork, err := s.Notes.ListByFolder(ctx, alice.ID, work.ID)
	require.NoError(t, err)
	require.Len(t, inWork, 1)
	assert.Equal(t, todo.ID, inWork[0].ID)

	loose.FolderID = &work.ID
	loose.Title = "Filed"
	require.NoError(t, s.Notes.Update(ctx, loose))
	inWork, err = s.Notes.ListByFolder(ctx, alice.ID, work.ID)
	require.NoError(t, err)
	require.Len(t, inWork, 2)
	assert.Equal(t, loose.ID, inWork[0].ID, "most recently updated first")

	n, err := s.Notes.DeleteByFolder(ctx, alice.ID, work.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.ErrorIs(t, s.Notes.Delete(ctx, todo.ID), domain.ErrNoteNotFound)
	assert.ErrorIs(t, s.Notes.Update(ctx, todo), domain.ErrNoteNotFound)
	missing, err := s.Notes.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	orphan := &domain.Note{UserID: uuid.New(), Title: "orphan"}
	assert.Error(t, s.Notes.Create(ctx, orphan), "notes need an existing owner")
}

func LoginEventRepository(t *testing.T, s Stores) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	for _, ua := range []string{"first", "second", "third"} {
		event := &domain.LoginEvent{UserID: alice.ID, IPAddress: "192.0.2.1", UserAgent: ua}
		require.NoError(t, s.LoginEvents.Create(ctx, event))
		assert.NotEqual(t, uuid.Nil, event.ID)
	}
	require.NoError(t, s.LoginEvents.Create(ctx, &domain.LoginEvent{UserID: bob.ID}))

	events, err := s.LoginEvents.ListByUser(ctx, alice.ID, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "third", events[0].UserAgent)
	assert.Equal(t, "second", events[1].UserAgent)
	assert.Equal(t, "192.0.2.1", events[0].IPAddress)

	events, err = s.LoginEvents.ListByUser(ctx, bob.ID, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func Transactor(t *testing.T, s Stores) {
	ctx := context.Background()
	boom := errors.New("boom")
	ghost := uniqueName("ghost")

	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Users.Create(ctx, &domain.User{Username: ghost, PasswordHash: "x"}))
		return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Users.GetByUsername(ctx, ghost)
	require.NoError(t, err)
	assert.Nil(t, got)

	kept := uniqueName("kept")
	require.NoError(t, s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.Users.Create(ctx, &domain.User{Username: kept, PasswordHash: "x"})
	}))
	got, err = s.Users.GetByUsername(ctx, kept)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
