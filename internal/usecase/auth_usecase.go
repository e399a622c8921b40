package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/notes-app/backend/internal/auth"
	"github.com/notes-app/backend/internal/domain"
)

const TokenTypeBearer = "Bearer"

const (
	defaultLoginHistory = 20
	maxLoginHistory     = 100
)

type AuthUsecase struct {
	userRepo       domain.UserRepository
	loginEventRepo domain.LoginEventRepository
	hasher         auth.PasswordHasher
	signer         *auth.Signer
	tokens         *RefreshTokenManager
	tx             domain.Transactor
}

// LoginMeta describes the client a login came from.
type LoginMeta struct {
	IPAddress string
	UserAgent string
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	Username     string `json:"username"`
}

func NewAuthUsecase(userRepo domain.UserRepository, loginEventRepo domain.LoginEventRepository, hasher auth.PasswordHasher, signer *auth.Signer, tokens *RefreshTokenManager, tx domain.Transactor) *AuthUsecase {
	return &AuthUsecase{
		userRepo:       userRepo,
		loginEventRepo: loginEventRepo,
		hasher:         hasher,
		signer:         signer,
		tokens:         tokens,
		tx:             tx,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, username, password string) (*domain.User, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(username) == "" {
		verr.Add("username", "must not be blank")
	}
	if strings.TrimSpace(password) == "" {
		verr.Add("password", "must not be blank")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	existing, err := u.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
	}
	// A concurrent registration can still win the race; the store's unique
	// constraint reports it as ErrUsernameTaken.
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and issues an access token plus a new refresh
// token, and records the login. Rotating the refresh token and recording the
// login commit together, so a failed login leaves earlier sessions intact.
func (u *AuthUsecase) Login(ctx context.Context, username, password string, meta LoginMeta) (*TokenResponse, error) {
	user, err := u.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := u.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := u.signer.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	var refresh *domain.RefreshToken
	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		refresh, err = u.tokens.Create(ctx, user.Username)
		if err != nil {
			return err
		}
		return u.loginEventRepo.Create(ctx, &domain.LoginEvent{
			UserID:    user.ID,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		TokenType:    TokenTypeBearer,
		Username:     user.Username,
	}, nil
}

// Refresh issues a new access token for a live refresh token. The refresh
// token itself is returned unchanged.
func (u *AuthUsecase) Refresh(ctx context.Context, value string) (*TokenResponse, error) {
	token, err := u.tokens.FindByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, domain.ErrRefreshTokenMissing
	}
	if token.Revoked {
		return nil, domain.ErrRefreshTokenRevoked
	}
	live, err := u.tokens.VerifyNotExpired(ctx, token)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, domain.ErrRefreshTokenExpired
	}

	user, err := u.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrRefreshTokenMissing
	}

	accessToken, err := u.signer.Issue(user.Username)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: token.Token,
		TokenType:    TokenTypeBearer,
		Username:     user.Username,
	}, nil
}

// Logout revokes every refresh token of the user. Access tokens already
// issued stay valid until they expire.
func (u *AuthUsecase) Logout(ctx context.Context, userID uuid.UUID) error {
	if _, err := u.tokens.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// LoginHistory returns the user's most recent logins, newest first.
func (u *AuthUsecase) LoginHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.LoginEvent, error) {
	if limit <= 0 {
		limit = defaultLoginHistory
	}
	if limit > maxLoginHistory {
		limit = maxLoginHistory
	}
	return u.loginEventRepo.ListByUser(ctx, userID, limit)
}
