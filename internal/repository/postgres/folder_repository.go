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

type FolderRepository struct {
	db *pgxpool.Pool
}

func NewFolderRepository(db *pgxpool.Pool) *FolderRepository {
	return &FolderRepository{db: db}
}

const folderSelect = `
	SELECT f.id, f.user_id, f.name, f.parent_id, COALESCE(p.name, ''), f.created_at, f.updated_at
	FROM folders f
	LEFT JOIN folders p ON p.id = f.parent_id
`

func scanFolder(row pgx.Row) (*domain.Folder, error) {
	folder := &domain.Folder{}
	err := row.Scan(
		&folder.ID,
		&folder.UserID,
		&folder.Name,
		&folder.ParentID,
		&folder.ParentFolderName,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return folder, nil
}

func (r *FolderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Folder, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []*domain.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

func (r *FolderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO folders (id, user_id, parent_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if folder.ID == uuid.Nil {
		folder.ID = uuid.New()
	}
	now := time.Now().UTC()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	_, err := conn(ctx, r.db).Exec(ctx, query,
		folder.ID,
		folder.UserID,
		folder.ParentID,
		folder.Name,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrFolderNameTaken
	}
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

func (r *FolderRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	folder, err := scanFolder(conn(ctx, r.db).QueryRow(ctx, folderSelect+`WHERE f.id = $1 AND f.user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

func (r *FolderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	folders, err := r.list(ctx, folderSelect+`WHERE f.user_id = $1 ORDER BY f.name, f.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

func (r *FolderRepository) ListRoots(ctx context.Context, userID uuid.UUID) ([]*domain.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	folders, err := r.list(ctx, folderSelect+`WHERE f.user_id = $1 AND f.parent_id IS NULL ORDER BY f.name, f.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}
	return folders, nil
}

func (r *FolderRepository) ListChildren(ctx context.Context, userID, parentID uuid.UUID) ([]*domain.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	folders, err := r.list(ctx, folderSelect+`WHERE f.user_id = $1 AND f.parent_id = $2 ORDER BY f.name, f.created_at`, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	return folders, nil
}

func (r *FolderRepository) ExistsByName(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT EXISTS(
			SELECT 1 FROM folders
			WHERE user_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND name = $3
		)
	`

	var exists bool
	if err := conn(ctx, r.db).QueryRow(ctx, query, userID, parentID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check folder name: %w", err)
	}
	return exists, nil
}

func (r *FolderRepository) Update(ctx context.Context, folder *domain.Folder) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE folders SET name = $3, parent_id = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
	`

	folder.UpdatedAt = time.Now().UTC()
	tag, err := conn(ctx, r.db).Exec(ctx, query,
		folder.ID,
		folder.UserID,
		folder.Name,
		folder.ParentID,
		folder.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrFolderNameTaken
	}
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFolderNotFound
	}
	return nil
}

// Delete removes a single folder row. Children and notes must be gone first.
func (r *FolderRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM folders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFolderNotFound
	}
	return nil
}
