// Package service holds the application services sitting between the HTTP
// layer and the store. Services check access before touching records and
// translate store sentinels into typed domain errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crowdtune/crowdtune-server/internal/auth"
	"github.com/crowdtune/crowdtune-server/internal/domain"
	apperrors "github.com/crowdtune/crowdtune-server/internal/errors"
	"github.com/crowdtune/crowdtune-server/internal/store"
)

// TokenPair bundles the credentials returned by login and registration.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthService handles registration, login and token refresh.
type AuthService struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store *store.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a user with a unique username and logs them in.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, *TokenPair, error) {
	// 1. Hash the password. Length and emptiness are checked here too.
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, apperrors.Validation(err.Error())
	}

	// 2. Create the user; the store enforces username uniqueness.
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return nil, nil, apperrors.AlreadyExistsf("username %q is already taken", username)
		}
		return nil, nil, err
	}

	// 3. Issue tokens.
	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", username)

	return user, pair, nil
}

// Login verifies credentials and issues a token pair.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *TokenPair, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, nil, apperrors.InvalidCredentials("invalid username or password")
	}
	if err != nil {
		return nil, nil, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperrors.InvalidCredentials("invalid username or password")
	}

	if err := s.store.TouchUserLogin(ctx, user.ID); err != nil {
		s.logger.Warn("could not record login time", "user_id", user.ID, "error", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return user, pair, nil
}

// Refresh rotates a refresh token: the old session is deleted and a fresh
// pair is issued. An unknown or expired token is an authorization failure.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenHash := auth.HashRefreshToken(refreshToken)

	session, err := s.store.GetSession(ctx, tokenHash)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, apperrors.TokenExpired("refresh token is invalid or expired")
	}
	if err != nil {
		return nil, err
	}

	// A soft-deleted user's outstanding sessions stop working here.
	user, err := s.store.GetUser(ctx, session.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, apperrors.Unauthorized("account is no longer active")
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteSession(ctx, tokenHash); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token. Revoking an unknown token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.store.DeleteSession(ctx, auth.HashRefreshToken(refreshToken))
}

// VerifyAccess validates an access token and returns its claims.
func (s *AuthService) VerifyAccess(tokenString string) (*auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired access token")
	}
	return claims, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &store.Session{
		UserID:  user.ID,
		Created: now,
		Expires: now.Add(s.tokens.RefreshTokenDuration()),
	}
	if err := s.store.SaveSession(ctx, auth.HashRefreshToken(refreshToken), session); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.tokens.AccessTokenDuration()),
	}, nil
}
