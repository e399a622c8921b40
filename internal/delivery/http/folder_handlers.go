package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/notes-app/backend/internal/delivery/http/response"
	"github.com/notes-app/backend/internal/usecase"
)

type folderRequest struct {
	Name           string     `json:"name"`
	ParentFolderID *uuid.UUID `json:"parentFolderId"`
}

func (req folderRequest) input() usecase.FolderInput {
	return usecase.FolderInput{Name: req.Name, ParentID: req.ParentFolderID}
}

func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	folders, err := h.folderUsecase.ListAll(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Folders retrieved successfully", folders)
}

func (h *Handler) ListRootFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	folders, err := h.folderUsecase.ListRoots(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Root folders retrieved successfully", folders)
}

func (h *Handler) ListSubfolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	parentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	folders, err := h.folderUsecase.ListChildren(r.Context(), userID, parentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Subfolders retrieved successfully", folders)
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req folderRequest
	if !decode(w, r, &req) {
		return
	}

	folder, err := h.folderUsecase.Create(r.Context(), userID, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, "Folder created successfully", folder)
}

func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	folder, err := h.folderUsecase.Get(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Folder retrieved successfully", folder)
}

func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req folderRequest
	if !decode(w, r, &req) {
		return
	}

	folder, err := h.folderUsecase.Update(r.Context(), userID, id, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Folder updated successfully", folder)
}

func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.folderUsecase.Delete(r.Context(), userID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "Folder deleted successfully", nil)
}
