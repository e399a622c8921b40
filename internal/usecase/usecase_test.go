package usecase

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/notes-app/backend/internal/auth"
	"github.com/notes-app/backend/internal/domain"
	"github.com/notes-app/backend/internal/repository/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	db      *sql.DB
	users   *sqlite.UserStore
	tokens  *sqlite.RefreshTokenStore
	tx      *sqlite.Transactor
	signer  *auth.Signer
	manager *RefreshTokenManager
	auth    *AuthUsecase
	folders *FolderUsecase
	notes   *NoteUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	signer, err := auth.NewSigner([]byte("test-signing-key"), auth.DefaultAccessTTL)
	require.NoError(t, err)

	tx := sqlite.NewTransactor(db)
	users := sqlite.NewUserStore(db)
	tokens := sqlite.NewRefreshTokenStore(db)
	folderStore := sqlite.NewFolderStore(db)
	noteStore := sqlite.NewNoteStore(db)
	manager := NewRefreshTokenManager(users, tokens, tx, DefaultRefreshTTL)

	return &fixture{
		db:      db,
		users:   users,
		tokens:  tokens,
		tx:      tx,
		signer:  signer,
		manager: manager,
		auth:    NewAuthUsecase(users, sqlite.NewLoginEventStore(db), auth.NewBcryptHasher(bcrypt.MinCost), signer, manager, tx),
		folders: NewFolderUsecase(folderStore, noteStore, users, tx),
		notes:   NewNoteUsecase(noteStore, folderStore, tx),
	}
}

func (f *fixture) register(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), username, "pw-"+username)
	require.NoError(t, err)
	return user
}

func (f *fixture) folder(t *testing.T, userID uuid.UUID, name string, parent *domain.Folder) *domain.Folder {
	t.Helper()
	in := FolderInput{Name: name}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	folder, err := f.folders.Create(context.Background(), userID, in)
	require.NoError(t, err)
	return folder
}

func (f *fixture) countRefreshTokens(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM refresh_tokens WHERE user_id = ?`, userID).Scan(&n))
	return n
}
