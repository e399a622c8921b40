package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Folder struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"-"`
	Name             string     `json:"name"`
	ParentID         *uuid.UUID `json:"parentFolderId"`
	ParentFolderName string     `json:"parentFolderName,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// FolderDetail is a folder together with its direct children.
type FolderDetail struct {
	*Folder
	Subfolders []*Folder `json:"subfolders"`
	Notes      []*Note   `json:"notes"`
}

// FolderRepository lookups are always scoped by owner; a folder owned by
// someone else is indistinguishable from a missing one.
type FolderRepository interface {
	Create(ctx context.Context, folder *Folder) error
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*Folder, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Folder, error)
	ListRoots(ctx context.Context, userID uuid.UUID) ([]*Folder, error)
	ListChildren(ctx context.Context, userID, parentID uuid.UUID) ([]*Folder, error)
	ExistsByName(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID, name string) (bool, error)
	Update(ctx context.Context, folder *Folder) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
