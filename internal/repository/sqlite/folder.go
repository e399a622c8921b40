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

type FolderStore struct {
	db *sql.DB
}

func NewFolderStore(db *sql.DB) *FolderStore {
	return &FolderStore{db: db}
}

const folderSelect = `SELECT f.id, f.user_id, f.name, f.parent_id, COALESCE(p.name, ''), f.created_at, f.updated_at
	FROM folders f LEFT JOIN folders p ON p.id = f.parent_id `

type scanner interface {
	Scan(dest ...any) error
}

func scanFolder(row scanner) (*domain.Folder, error) {
	var f domain.Folder
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.ParentID, &f.ParentFolderName,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.CreatedAt, f.UpdatedAt = f.CreatedAt.UTC(), f.UpdatedAt.UTC()
	return &f, nil
}

func (s *FolderStore) list(ctx context.Context, query string, args ...any) ([]*domain.Folder, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []*domain.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (s *FolderStore) Create(ctx context.Context, folder *domain.Folder) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if folder.ID == uuid.Nil {
		folder.ID = uuid.New()
	}
	now := time.Now().UTC()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	_, err := conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO folders (id, user_id, parent_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		folder.ID, folder.UserID, folder.ParentID, folder.Name, now, now,
	)
	if isUniqueViolation(err) {
		return domain.ErrFolderNameTaken
	}
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

func (s *FolderStore) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	f, err := scanFolder(conn(ctx, s.db).QueryRowContext(ctx, folderSelect+`WHERE f.id = ? AND f.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return f, nil
}

func (s *FolderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	folders, err := s.list(ctx, folderSelect+`WHERE f.user_id = ? ORDER BY f.name, f.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

func (s *FolderStore) ListRoots(ctx context.Context, userID uuid.UUID) ([]*domain.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	folders, err := s.list(ctx, folderSelect+`WHERE f.user_id = ? AND f.parent_id IS NULL ORDER BY f.name, f.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}
	return folders, nil
}

func (s *FolderStore) ListChildren(ctx context.Context, userID, parentID uuid.UUID) ([]*domain.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	folders, err := s.list(ctx, folderSelect+`WHERE f.user_id = ? AND f.parent_id = ? ORDER BY f.name, f.created_at`, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	return folders, nil
}

func (s *FolderStore) ExistsByName(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM folders WHERE user_id = ? AND parent_id IS ? AND name = ?)`,
		userID, parentID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check folder name: %w", err)
	}
	return exists, nil
}

func (s *FolderStore) Update(ctx context.Context, folder *domain.Folder) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	folder.UpdatedAt = time.Now().UTC()
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE folders SET name = ?, parent_id = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		folder.Name, folder.ParentID, folder.UpdatedAt, folder.ID, folder.UserID,
	)
	if isUniqueViolation(err) {
		return domain.ErrFolderNameTaken
	}
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrFolderNotFound
	}
	return nil
}

func (s *FolderStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM folders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrFolderNotFound
	}
	return nil
}
