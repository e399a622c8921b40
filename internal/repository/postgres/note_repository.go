package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notes-app/backend/internal/domain"
)

type NoteRepository struct {
	db *pgxpool.Pool
}

func NewNoteRepository(db *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteSelect = `
	SELECT n.id, n.user_id, n.title, n.content, n.folder_id, COALESCE(f.name, ''), n.created_at, n.updated_at
	FROM notes n
	LEFT JOIN folders f ON f.id = n.folder_id
`

func scanNote(row pgx.Row) (*domain.Note, error) {
	note := &domain.Note{}
	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&note.FolderID,
		&note.FolderName,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (r *NoteRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Note, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO notes (id, user_id, folder_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := conn(ctx, r.db).Exec(ctx, query,
		note.ID,
		note.UserID,
		note.FolderID,
		note.Title,
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	note, err := scanNote(conn(ctx, r.db).QueryRow(ctx, noteSelect+`WHERE n.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	notes, err := r.list(ctx, noteSelect+`WHERE n.user_id = $1 ORDER BY n.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) ListRoot(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	notes, err := r.list(ctx, noteSelect+`WHERE n.user_id = $1 AND n.folder_id IS NULL ORDER BY n.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list root notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) ListByFolder(ctx context.Context, userID, folderID uuid.UUID) ([]*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	notes, err := r.list(ctx, noteSelect+`WHERE n.user_id = $1 AND n.folder_id = $2 ORDER BY n.updated_at DESC`, userID, folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE notes SET title = $2, content = $3, folder_id = $4, updated_at = $5
		WHERE id = $1
	`

	note.UpdatedAt = time.Now().UTC()
	tag, err := conn(ctx, r.db).Exec(ctx, query,
		note.ID,
		note.Title,
		note.Content,
		note.FolderID,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) DeleteByFolder(ctx context.Context, userID, folderID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM notes WHERE user_id = $1 AND folder_id = $2`, userID, folderID)
	if err != nil {
		return 0, fmt.Errorf("delete folder notes: %w", err)
	}
	return tag.RowsAffected(), nil
}
