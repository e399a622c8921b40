package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notes-app/backend/internal/domain"
	"github.com/notes-app/backend/internal/repository/repotest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func stores(db *sql.DB) repotest.Stores {
	return repotest.Stores{
		Users:       NewUserStore(db),
		Tokens:      NewRefreshTokenStore(db),
		Folders:     NewFolderStore(db),
		Notes:       NewNoteStore(db),
		LoginEvents: NewLoginEventStore(db),
		Tx:          NewTransactor(db),
	}
}

func TestStores(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Stores {
		return stores(openTestDB(t))
	})
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	err := NewNoteStore(db).Create(context.Background(), &domain.Note{UserID: uuid.New(), Title: "orphan"})
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "notes.db?"+dsnParams, dsn("notes.db"))
	assert.Equal(t, ":memory:?"+dsnParams, dsn(":memory:"))
	assert.Equal(t, "file:notes.db?mode=rwc&"+dsnParams, dsn("file:notes.db?mode=rwc"))
}

func TestOpenPathWithQuery(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "notes.db") + "?mode=rwc"
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestTimestampsAreStoredAsDatetime(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserStore(db)

	local := time.FixedZone("east", 5*60*60)
	u := &domain.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, u))

	token := &domain.RefreshToken{UserID: u.ID, Token: "t", ExpiresAt: time.Now().In(local).Add(time.Minute)}
	require.NoError(t, NewRefreshTokenStore(db).Create(ctx, token))

	got, err := NewRefreshTokenStore(db).GetByToken(ctx, "t")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.UTC, got.ExpiresAt.Location())
	assert.True(t, got.ExpiresAt.Equal(token.ExpiresAt))

	// Comparisons happen on the stored text, so zones must not leak in.
	n, err := NewRefreshTokenStore(db).DeleteExpired(ctx, time.Now().In(local))
	require.NoError(t, err)
	assert.Zero(t, n)

	var typ string
	require.NoError(t, db.QueryRow(`SELECT typeof(expires_at) FROM refresh_tokens`).Scan(&typ))
	assert.Equal(t, "text", typ)
}
