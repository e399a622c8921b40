package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notes-app/backend/internal/domain"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

const noteSelect = `SELECT n.id, n.user_id, n.title, n.content, n.folder_id, COALESCE(f.name, ''), n.created_at, n.updated_at
	FROM notes n LEFT JOIN folders f ON f.id = n.folder_id `

func scanNote(row scanner) (*domain.Note, error) {
	var n domain.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.FolderID, &n.FolderName,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.CreatedAt, n.UpdatedAt = n.CreatedAt.UTC(), n.UpdatedAt.UTC()
	return &n, nil
}

func (s *NoteStore) list(ctx context.Context, query string, args ...any) ([]*domain.Note, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *NoteStore) Create(ctx context.Context, note *domain.Note) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO notes (id, user_id, folder_id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.FolderID, note.Title, note.Content, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *NoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	n, err := scanNote(conn(ctx, s.db).QueryRowContext(ctx, noteSelect+`WHERE n.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (s *NoteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	notes, err := s.list(ctx, noteSelect+`WHERE n.user_id = ? ORDER BY n.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *NoteStore) ListRoot(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	notes, err := s.list(ctx, noteSelect+`WHERE n.user_id = ? AND n.folder_id IS NULL ORDER BY n.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list root notes: %w", err)
	}
	return notes, nil
}

func (s *NoteStore) ListByFolder(ctx context.Context, userID, folderID uuid.UUID) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	notes, err := s.list(ctx, noteSelect+`WHERE n.user_id = ? AND n.folder_id = ? ORDER BY n.updated_at DESC`, userID, folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder notes: %w", err)
	}
	return notes, nil
}

func (s *NoteStore) Update(ctx context.Context, note *domain.Note) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	note.UpdatedAt = time.Now().UTC()
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, folder_id = ?, updated_at = ? WHERE id = ?`,
		note.Title, note.Content, note.FolderID, note.UpdatedAt, note.ID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (s *NoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (s *NoteStore) DeleteByFolder(ctx context.Context, userID, folderID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM notes WHERE user_id = ? AND folder_id = ?`, userID, folderID)
	if err != nil {
		return 0, fmt.Errorf("delete folder notes: %w", err)
	}
	return res.RowsAffected()
}
