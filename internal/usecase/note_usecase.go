package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/notes-app/backend/internal/domain"
)

// NoteUsecase scopes every note operation to its owner. A note owned by
// another user is reported as not found.
type NoteUsecase struct {
	noteRepo   domain.NoteRepository
	folderRepo domain.FolderRepository
	tx         domain.Transactor
}

func NewNoteUsecase(noteRepo domain.NoteRepository, folderRepo domain.FolderRepository, tx domain.Transactor) *NoteUsecase {
	return &NoteUsecase{
		noteRepo:   noteRepo,
		folderRepo: folderRepo,
		tx:         tx,
	}
}

type NoteInput struct {
	Title    string
	Content  string
	FolderID *uuid.UUID
}

func (in NoteInput) validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "Title cannot be empty")
	}
	return verr.Err()
}

func (u *NoteUsecase) List(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	return u.noteRepo.ListByUser(ctx, userID)
}

func (u *NoteUsecase) ListRoot(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	return u.noteRepo.ListRoot(ctx, userID)
}

func (u *NoteUsecase) ListByFolder(ctx context.Context, userID, folderID uuid.UUID) ([]*domain.Note, error) {
	folder, err := u.folderRepo.GetByIDAndUser(ctx, folderID, userID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, domain.ErrFolderNotFound
	}
	return u.noteRepo.ListByFolder(ctx, userID, folderID)
}

func (u *NoteUsecase) Create(ctx context.Context, userID uuid.UUID, in NoteInput) (*domain.Note, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	note := &domain.Note{
		UserID:   userID,
		Title:    in.Title,
		Content:  in.Content,
		FolderID: in.FolderID,
	}
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		name, err := u.folderName(ctx, userID, in.FolderID)
		if err != nil {
			return err
		}
		note.FolderName = name
		return u.noteRepo.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (u *NoteUsecase) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Note, error) {
	return u.owned(ctx, userID, id)
}

// Update replaces title, content and folder. A nil FolderID moves the note
// to the root.
func (u *NoteUsecase) Update(ctx context.Context, userID, id uuid.UUID, in NoteInput) (*domain.Note, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var note *domain.Note
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		note, err = u.owned(ctx, userID, id)
		if err != nil {
			return err
		}
		name, err := u.folderName(ctx, userID, in.FolderID)
		if err != nil {
			return err
		}

		note.Title = in.Title
		note.Content = in.Content
		note.FolderID = in.FolderID
		note.FolderName = name
		return u.noteRepo.Update(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (u *NoteUsecase) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := u.owned(ctx, userID, id); err != nil {
			return err
		}
		return u.noteRepo.Delete(ctx, id)
	})
}

func (u *NoteUsecase) owned(ctx context.Context, userID, id uuid.UUID) (*domain.Note, error) {
	note, err := u.noteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil || note.UserID != userID {
		return nil, domain.ErrNoteNotFound
	}
	return note, nil
}

func (u *NoteUsecase) folderName(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID) (string, error) {
	if folderID == nil {
		return "", nil
	}
	folder, err := u.folderRepo.GetByIDAndUser(ctx, *folderID, userID)
	if err != nil {
		return "", err
	}
	if folder == nil {
		return "", domain.ErrNoteFolderNotFound
	}
	return folder.Name, nil
}
