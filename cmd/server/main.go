package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/notes-app/backend/internal/auth"
	"github.com/notes-app/backend/internal/config"
	delivery "github.com/notes-app/backend/internal/delivery/http"
	"github.com/notes-app/backend/internal/domain"
	"github.com/notes-app/backend/internal/logging"
	"github.com/notes-app/backend/internal/middleware"
	"github.com/notes-app/backend/internal/repository/postgres"
	"github.com/notes-app/backend/internal/repository/sqlite"
	"github.com/notes-app/backend/internal/usecase"
)

type store struct {
	users   domain.UserRepository
	tokens  domain.RefreshTokenRepository
	folders domain.FolderRepository
	notes   domain.NoteRepository
	logins  domain.LoginEventRepository
	tx      domain.Transactor
	ping    delivery.Pinger
	close   func()
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Str("driver", cfg.Database.Driver).Str("port", cfg.Server.Port).Msg("notes backend starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	key := []byte(cfg.JWT.Secret)
	if len(key) == 0 {
		key, err = auth.GenerateKey()
		if err != nil {
			return err
		}
		logger.Warn().Msg("JWT_SECRET not set, using a random signing key for this process")
	}
	signer, err := auth.NewSigner(key, cfg.JWT.AccessExpiry)
	if err != nil {
		return err
	}

	tokens := usecase.NewRefreshTokenManager(st.users, st.tokens, st.tx, cfg.JWT.RefreshExpiry)
	authUsecase := usecase.NewAuthUsecase(st.users, st.logins, auth.NewBcryptHasher(bcrypt.DefaultCost), signer, tokens, st.tx)
	folderUsecase := usecase.NewFolderUsecase(st.folders, st.notes, st.users, st.tx)
	noteUsecase := usecase.NewNoteUsecase(st.notes, st.folders, st.tx)

	handler := delivery.NewHandler(authUsecase, folderUsecase, noteUsecase, st.ping, logger)
	authMiddleware := middleware.NewAuthMiddleware(signer, st.users, logger)
	router := delivery.NewRouter(handler, authMiddleware, delivery.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRateLimit:  cfg.RateLimit.AuthRequests,
		AuthRateWindow: cfg.RateLimit.AuthWindow,
		RequestLogger:  logger.With().Str("component", "access").Logger(),
	})

	go sweep(ctx, cfg.Cleanup.Interval, tokens, logger.With().Str("component", "sweeper").Logger())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.Database.SQLitePath).Msg("opened sqlite store")
		return sqliteStore(db), nil
	default:
		pool, err := postgres.Connect(ctx, cfg.Database.URL, 5, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{
			users:   postgres.NewUserRepository(pool),
			tokens:  postgres.NewRefreshTokenRepository(pool),
			folders: postgres.NewFolderRepository(pool),
			notes:   postgres.NewNoteRepository(pool),
			logins:  postgres.NewLoginEventRepository(pool),
			tx:      postgres.NewTransactor(pool),
			ping:    pool.Ping,
			close:   pool.Close,
		}, nil
	}
}

func sqliteStore(db *sql.DB) *store {
	return &store{
		users:   sqlite.NewUserStore(db),
		tokens:  sqlite.NewRefreshTokenStore(db),
		folders: sqlite.NewFolderStore(db),
		notes:   sqlite.NewNoteStore(db),
		logins:  sqlite.NewLoginEventStore(db),
		tx:      sqlite.NewTransactor(db),
		ping:    db.PingContext,
		close:   func() { db.Close() },
	}
}

// sweep periodically deletes expired refresh tokens until ctx is done.
func sweep(ctx context.Context, interval time.Duration, tokens *usecase.RefreshTokenManager, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.SweepExpired(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("sweep expired refresh tokens")
			} else if n > 0 {
				logger.Info().Int64("deleted", n).Msg("swept expired refresh tokens")
			}
		}
	}
}
