package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/notes-app/backend/internal/delivery/http/response"
	"github.com/notes-app/backend/internal/usecase"
)

type noteRequest struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	FolderID *uuid.UUID `json:"folderId"`
}

func (req noteRequest) input() usecase.NoteInput {
	return usecase.NoteInput{Title: req.Title, Content: req.Content, FolderID: req.FolderID}
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	notes, err := h.noteUsecase.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Notes retrieved successfully", notes)
}

func (h *Handler) ListRootNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	notes, err := h.noteUsecase.ListRoot(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Root notes retrieved successfully", notes)
}

func (h *Handler) ListFolderNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	folderID, ok := pathID(w, r, "folderId")
	if !ok {
		return
	}

	notes, err := h.noteUsecase.ListByFolder(r.Context(), userID, folderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Notes retrieved successfully", notes)
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !decode(w, r, &req) {
		return
	}

	note, err := h.noteUsecase.Create(r.Context(), userID, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, "Note created successfully", note)
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	note, err := h.noteUsecase.Get(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Note retrieved successfully", note)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req noteRequest
	if !decode(w, r, &req) {
		return
	}

	note, err := h.noteUsecase.Update(r.Context(), userID, id, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Note updated successfully", note)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.noteUsecase.Delete(r.Context(), userID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Note deleted successfully", nil)
}
