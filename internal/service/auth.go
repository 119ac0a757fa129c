// Package service — authentication business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/auth"
	"github.com/emstod/trunky-backend/internal/model"
	"github.com/emstod/trunky-backend/internal/repository"
)

// AuthService orchestrates the two sign-in paths — email/password and GitHub
// OAuth — against the user repository, the bcrypt hasher, and the JWT
// issuer. It knows nothing about HTTP; cookies are the handler's business.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an email/password account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < 8 {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}

	// A duplicate email surfaces as apperror.ErrConflict from the repository.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies an email/password pair and issues a session token.
// Every failure mode — unknown email, GitHub-only account, wrong password —
// reads as the same unauthorized error, so responses don't reveal which
// emails have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if user.PasswordHash == "" {
		// Account was created via GitHub OAuth and has no password.
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: upsert the user
// keyed on their stable GitHub ID (insert on first login, refresh profile
// fields after), then issue a session token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	user := &model.User{
		Email:     ghUser.Email,
		Name:      name,
		GitHubID:  ghUser.ID,
		AvatarURL: ghUser.AvatarURL,
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the middleware validates the JWT.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
