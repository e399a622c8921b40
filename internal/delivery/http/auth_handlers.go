package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/notes-app/backend/internal/delivery/http/response"
	"github.com/notes-app/backend/internal/middleware"
	"github.com/notes-app/backend/internal/usecase"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.authUsecase.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.OK(w, "User registered successfully", map[string]string{"username": user.Username})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	tokens, err := h.authUsecase.Login(r.Context(), req.Username, req.Password, usecase.LoginMeta{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.OK(w, "Login successful", tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	tokens, err := h.authUsecase.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.OK(w, "Token refreshed successfully", tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.authUsecase.Logout(r.Context(), userID); err != nil {
		h.fail(w, r, err)
		return
	}

	response.OK(w, "Logged out successfully", nil)
}

type meResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.authUsecase.Me(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.OK(w, "User retrieved successfully", meResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
}

func (h *Handler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := h.authUsecase.LoginHistory(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.OK(w, "Login history retrieved successfully", events)
}
