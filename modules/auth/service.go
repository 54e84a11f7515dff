package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/task-tracker/domain/apperror"
	domain "github.com/example/task-tracker/domain/user"
	"github.com/google/uuid"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 4
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

var (
	errMissingCredentials = apperror.Validation("Username and password are required")
	errInvalidCredentials = apperror.Unauthenticated("Invalid username or password")
)

// AuthService handles authentication business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	tokens *TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, tokens *TokenService) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a new user account. Domain failures are returned as
// *apperror.Error.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, errMissingCredentials
	}
	if n := utf8.RuneCountInString(username); n < MinUsernameLength {
		return nil, apperror.Validation("Username must be at least 3 characters long")
	} else if n > MaxUsernameLength {
		return nil, apperror.Validation("Username must be at most 50 characters long")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperror.Validation("Password must be at least 4 characters long")
	}
	if len(req.Password) > MaxPasswordLength {
		return nil, apperror.Validation("Password must be at most 72 characters long")
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return nil, apperror.Validation("Passwords do not match")
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict("Username already exists")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, apperror.Conflict("Username already exists")
		}
		return nil, err
	}

	log.Printf("[auth] Registered user %s (%s)", user.Username, user.ID)
	return user, nil
}

// Login checks credentials and issues a token. Unknown users and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (string, *domain.User, error) {
	if req.Username == "" || req.Password == "" {
		return "", nil, errMissingCredentials
	}

	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, errInvalidCredentials
		}
		return "", nil, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return "", nil, errInvalidCredentials
	}

	token, err := s.tokens.Issue(domain.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyToken validates a token and returns its identity.
func (s *AuthService) VerifyToken(_ context.Context, token string) (domain.Identity, error) {
	return s.tokens.Verify(token)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperror.NotFound("User")
	}
	return user, err
}
