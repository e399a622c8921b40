package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/notes-app/backend/internal/middleware"
)

type RouterConfig struct {
	AllowedOrigins []string
	AuthRateLimit  int
	AuthRateWindow time.Duration
	RequestLogger  zerolog.Logger
}

func NewRouter(handler *Handler, authMiddleware *middleware.AuthMiddleware, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.RequestLogger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(authMiddleware.Authenticate)

	r.Get("/health", handler.Health)

	authLimit := middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/register", handler.Register)
			r.With(authLimit).Post("/login", handler.Login)
			r.Post("/refresh-token", handler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAuth)
				r.Post("/logout", handler.Logout)
				r.Get("/me", handler.GetCurrentUser)
				r.Get("/logins", handler.LoginHistory)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Route("/folders", func(r chi.Router) {
				r.Get("/", handler.ListFolders)
				r.Post("/", handler.CreateFolder)
				r.Get("/root", handler.ListRootFolders)
				r.Get("/parent/{id}", handler.ListSubfolders)
				r.Get("/{id}", handler.GetFolder)
				r.Put("/{id}", handler.UpdateFolder)
				r.Delete("/{id}", handler.DeleteFolder)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", handler.ListNotes)
				r.Post("/", handler.CreateNote)
				r.Get("/root", handler.ListRootNotes)
				r.Get("/folder/{folderId}", handler.ListFolderNotes)
				r.Get("/{id}", handler.GetNote)
				r.Put("/{id}", handler.UpdateNote)
				r.Delete("/{id}", handler.DeleteNote)
			})
		})
	})

	return r
}
