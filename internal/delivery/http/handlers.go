package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notes-app/backend/internal/delivery/http/response"
	"github.com/notes-app/backend/internal/domain"
	"github.com/notes-app/backend/internal/middleware"
	"github.com/notes-app/backend/internal/usecase"
)

// Pinger reports whether the backing store is reachable.
type Pinger func(ctx context.Context) error

type Handler struct {
	authUsecase   *usecase.AuthUsecase
	folderUsecase *usecase.FolderUsecase
	noteUsecase   *usecase.NoteUsecase
	ping          Pinger
	logger        zerolog.Logger
}

func NewHandler(auth *usecase.AuthUsecase, folders *usecase.FolderUsecase, notes *usecase.NoteUsecase, ping Pinger, logger zerolog.Logger) *Handler {
	return &Handler{
		authUsecase:   auth,
		folderUsecase: folders,
		noteUsecase:   notes,
		ping:          ping,
		logger:        logger.With().Str("component", "http").Logger(),
	}
}

const unexpectedMessage = "An unexpected error occurred"

// fail translates err into an error envelope. Errors of no known kind are
// logged and answered with a generic 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		response.Error(w, http.StatusBadRequest, "Validation failed", verr.Messages()...)
		return
	}

	var derr *domain.Error
	if errors.As(err, &derr) {
		response.Error(w, statusFor(err), derr.Message)
		return
	}

	h.logger.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("unexpected error")
	response.Error(w, http.StatusInternalServerError, unexpectedMessage)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("health check failed")
			response.Error(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
	}
	response.OK(w, "OK", map[string]string{"status": "ok"})
}
