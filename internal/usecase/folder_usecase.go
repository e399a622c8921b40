package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/notes-app/backend/internal/domain"
)

type FolderUsecase struct {
	folderRepo domain.FolderRepository
	noteRepo   domain.NoteRepository
	userRepo   domain.UserRepository
	tx         domain.Transactor
}

func NewFolderUsecase(folderRepo domain.FolderRepository, noteRepo domain.NoteRepository, userRepo domain.UserRepository, tx domain.Transactor) *FolderUsecase {
	return &FolderUsecase{
		folderRepo: folderRepo,
		noteRepo:   noteRepo,
		userRepo:   userRepo,
		tx:         tx,
	}
}

type FolderInput struct {
	Name     string
	ParentID *uuid.UUID
}

func (in FolderInput) validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "Folder name cannot be empty")
	}
	return verr.Err()
}

func (u *FolderUsecase) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Folder, error) {
	return u.folderRepo.ListByUser(ctx, userID)
}

func (u *FolderUsecase) ListRoots(ctx context.Context, userID uuid.UUID) ([]*domain.Folder, error) {
	return u.folderRepo.ListRoots(ctx, userID)
}

func (u *FolderUsecase) ListChildren(ctx context.Context, userID, parentID uuid.UUID) ([]*domain.Folder, error) {
	if _, err := u.owned(ctx, userID, parentID); err != nil {
		return nil, err
	}
	return u.folderRepo.ListChildren(ctx, userID, parentID)
}

// Get returns the folder with its direct subfolders and notes.
func (u *FolderUsecase) Get(ctx context.Context, userID, id uuid.UUID) (*domain.FolderDetail, error) {
	folder, err := u.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	subfolders, err := u.folderRepo.ListChildren(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	notes, err := u.noteRepo.ListByFolder(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &domain.FolderDetail{Folder: folder, Subfolders: subfolders, Notes: notes}, nil
}

func (u *FolderUsecase) Create(ctx context.Context, userID uuid.UUID, in FolderInput) (*domain.Folder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	folder := &domain.Folder{
		UserID:   userID,
		Name:     in.Name,
		ParentID: in.ParentID,
	}
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Lock(ctx, userID); err != nil {
			return err
		}
		if in.ParentID != nil {
			parent, err := u.parent(ctx, userID, *in.ParentID)
			if err != nil {
				return err
			}
			folder.ParentFolderName = parent.Name
		}
		if err := u.ensureNameFree(ctx, userID, in.ParentID, in.Name); err != nil {
			return err
		}
		return u.folderRepo.Create(ctx, folder)
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// Update renames and re-parents a folder. A nil ParentID moves it to the root.
func (u *FolderUsecase) Update(ctx context.Context, userID, id uuid.UUID, in FolderInput) (*domain.Folder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var folder *domain.Folder
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Lock(ctx, userID); err != nil {
			return err
		}
		var err error
		folder, err = u.owned(ctx, userID, id)
		if err != nil {
			return err
		}

		parentName := ""
		if in.ParentID != nil {
			if *in.ParentID == id {
				return domain.ErrFolderOwnParent
			}
			parent, err := u.parent(ctx, userID, *in.ParentID)
			if err != nil {
				return err
			}
			if err := u.ensureNotDescendant(ctx, userID, id, parent); err != nil {
				return err
			}
			parentName = parent.Name
		}

		if folder.Name != in.Name || !sameParent(folder.ParentID, in.ParentID) {
			if err := u.ensureNameFree(ctx, userID, in.ParentID, in.Name); err != nil {
				return err
			}
		}

		folder.Name = in.Name
		folder.ParentID = in.ParentID
		folder.ParentFolderName = parentName
		return u.folderRepo.Update(ctx, folder)
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// Delete removes the folder, every folder below it and all their notes.
func (u *FolderUsecase) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Lock(ctx, userID); err != nil {
			return err
		}
		if _, err := u.owned(ctx, userID, id); err != nil {
			return err
		}

		subtree := []uuid.UUID{id}
		for i := 0; i < len(subtree); i++ {
			children, err := u.folderRepo.ListChildren(ctx, userID, subtree[i])
			if err != nil {
				return err
			}
			for _, c := range children {
				subtree = append(subtree, c.ID)
			}
		}

		for i := len(subtree) - 1; i >= 0; i-- {
			if _, err := u.noteRepo.DeleteByFolder(ctx, userID, subtree[i]); err != nil {
				return err
			}
			if err := u.folderRepo.Delete(ctx, subtree[i], userID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (u *FolderUsecase) owned(ctx context.Context, userID, id uuid.UUID) (*domain.Folder, error) {
	folder, err := u.folderRepo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, domain.ErrFolderNotFound
	}
	return folder, nil
}

func (u *FolderUsecase) parent(ctx context.Context, userID, id uuid.UUID) (*domain.Folder, error) {
	parent, err := u.folderRepo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, domain.ErrParentNotFound
	}
	return parent, nil
}

func (u *FolderUsecase) ensureNameFree(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID, name string) error {
	exists, err := u.folderRepo.ExistsByName(ctx, userID, parentID, name)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrFolderNameTaken
	}
	return nil
}

// ensureNotDescendant walks from parent up to the root and fails if it
// passes through the folder being moved.
func (u *FolderUsecase) ensureNotDescendant(ctx context.Context, userID, id uuid.UUID, parent *domain.Folder) error {
	seen := map[uuid.UUID]bool{}
	for cur := parent; cur != nil; {
		if cur.ID == id {
			return domain.ErrFolderCycle
		}
		if cur.ParentID == nil || seen[cur.ID] {
			return nil
		}
		seen[cur.ID] = true

		next, err := u.folderRepo.GetByIDAndUser(ctx, *cur.ParentID, userID)
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
