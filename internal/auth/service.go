package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when the email is already registered
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidAPIKey is returned for unknown or revoked API keys
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// DefaultUserEmail is the bootstrap account created at startup so the
// platform is usable before anyone signs up.
const DefaultUserEmail = "default@claude-platform.local"

// Service handles authentication and API key management.
type Service struct {
	users   repository.UserRepository
	apiKeys repository.APIKeyRepository
	jwt     *JWTService
	log     *logrus.Logger
}

// NewService creates a new auth service
func NewService(users repository.UserRepository, apiKeys repository.APIKeyRepository, jwt *JWTService, log *logrus.Logger) *Service {
	return &Service{users: users, apiKeys: apiKeys, jwt: jwt, log: log}
}

// Signup registers a new user and returns it with an access token.
func (s *Service) Signup(ctx context.Context, email, password, displayName string) (*models.User, string, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// Login authenticates a user and returns it with an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// ValidateToken resolves a JWT to a user id.
func (s *Service) ValidateToken(tokenString string) (uuid.UUID, error) {
	return s.jwt.ValidateToken(tokenString)
}

// ValidateAPIKey resolves an API key to its owning user id.
func (s *Service) ValidateAPIKey(ctx context.Context, apiKey string) (uuid.UUID, error) {
	if !ValidateAPIKeyFormat(apiKey) {
		return uuid.Nil, ErrInvalidAPIKey
	}

	key, err := s.apiKeys.GetByHash(ctx, HashAPIKey(apiKey))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up API key: %w", err)
	}
	if key == nil {
		return uuid.Nil, ErrInvalidAPIKey
	}

	return key.UserID, nil
}

// CreateAPIKey issues a new API key for a user. The plaintext key is
// returned exactly once.
func (s *Service) CreateAPIKey(ctx context.Context, userID uuid.UUID, name string) (*models.APIKey, string, error) {
	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}

	key := &models.APIKey{
		UserID:    userID,
		Name:      name,
		KeyHash:   hash,
		KeyPrefix: prefix,
	}
	if err := s.apiKeys.Create(ctx, key); err != nil {
		return nil, "", fmt.Errorf("failed to store API key: %w", err)
	}

	return key, plaintext, nil
}

// ListAPIKeys lists a user's API keys.
func (s *Service) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	return s.apiKeys.ListByUser(ctx, userID)
}

// RevokeAPIKey revokes one of the user's API keys.
func (s *Service) RevokeAPIKey(ctx context.Context, userID, keyID uuid.UUID) error {
	return s.apiKeys.Revoke(ctx, userID, keyID)
}

// EnsureDefaultUser creates the bootstrap user on first startup and
// issues it an API key so the platform is usable before anyone signs up.
// The plaintext key is returned exactly once, on the run that created the
// user; later runs return the existing id and an empty key. The identity
// is returned to callers explicitly rather than cached in process-wide
// state.
func (s *Service) EnsureDefaultUser(ctx context.Context) (uuid.UUID, string, error) {
	user, err := s.users.GetByEmail(ctx, DefaultUserEmail)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to look up default user: %w", err)
	}
	if user != nil {
		return user.ID, "", nil
	}

	hash, err := HashPassword(uuid.New().String())
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to hash default password: %w", err)
	}

	user = &models.User{
		Email:        DefaultUserEmail,
		PasswordHash: hash,
		DisplayName:  "Default User",
		IsAdmin:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to create default user: %w", err)
	}

	// Password login is deliberately unusable for this account; the API
	// key is its only credential.
	_, plaintext, err := s.CreateAPIKey(ctx, user.ID, "bootstrap")
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to issue bootstrap API key: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("created default user with bootstrap API key")
	return user.ID, plaintext, nil
}
