package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notes-app/backend/internal/domain"
)

// DefaultRefreshTTL is the lifetime of a refresh token.
const DefaultRefreshTTL = 7 * 24 * time.Hour

// RefreshTokenManager owns the refresh token lifecycle. A user holds at most
// one token at a time: creating a token replaces any previous one.
type RefreshTokenManager struct {
	userRepo  domain.UserRepository
	tokenRepo domain.RefreshTokenRepository
	tx        domain.Transactor
	ttl       time.Duration
	now       func() time.Time
}

func NewRefreshTokenManager(userRepo domain.UserRepository, tokenRepo domain.RefreshTokenRepository, tx domain.Transactor, ttl time.Duration) *RefreshTokenManager {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &RefreshTokenManager{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tx:        tx,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Create replaces the user's refresh token with a fresh random one.
func (m *RefreshTokenManager) Create(ctx context.Context, username string) (*domain.RefreshToken, error) {
	var token *domain.RefreshToken
	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := m.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		if err := m.userRepo.Lock(ctx, user.ID); err != nil {
			return err
		}
		if err := m.tokenRepo.DeleteByUserID(ctx, user.ID); err != nil {
			return err
		}

		token = &domain.RefreshToken{
			UserID:    user.ID,
			Token:     uuid.NewString(),
			ExpiresAt: m.now().UTC().Add(m.ttl),
		}
		return m.tokenRepo.Create(ctx, token)
	})
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	return token, nil
}

// FindByValue returns nil when no token has the exact value.
func (m *RefreshTokenManager) FindByValue(ctx context.Context, value string) (*domain.RefreshToken, error) {
	if value == "" {
		return nil, nil
	}
	return m.tokenRepo.GetByToken(ctx, value)
}

// VerifyNotExpired reports whether token is still within its lifetime. An
// expired token is deleted as a side effect, so a later lookup finds nothing.
func (m *RefreshTokenManager) VerifyNotExpired(ctx context.Context, token *domain.RefreshToken) (bool, error) {
	if !token.Expired(m.now()) {
		return true, nil
	}
	if err := m.tokenRepo.Delete(ctx, token.ID); err != nil {
		return false, err
	}
	return false, nil
}

// RevokeAll marks every token of the user as revoked. Revoked rows are kept.
func (m *RefreshTokenManager) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.tokenRepo.RevokeByUserID(ctx, userID)
}

// SweepExpired deletes all expired tokens.
func (m *RefreshTokenManager) SweepExpired(ctx context.Context) (int64, error) {
	return m.tokenRepo.DeleteExpired(ctx, m.now().UTC())
}
