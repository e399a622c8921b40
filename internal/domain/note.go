package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"-"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	FolderID   *uuid.UUID `json:"folderId"`
	FolderName string     `json:"folderName,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Note, error)
	ListRoot(ctx context.Context, userID uuid.UUID) ([]*Note, error)
	ListByFolder(ctx context.Context, userID, folderID uuid.UUID) ([]*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByFolder(ctx context.Context, userID, folderID uuid.UUID) (int64, error)
}
