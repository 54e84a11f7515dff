package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
// Domain failures are returned as *apperror.Error; anything else is a
// transport failure.
type AuthPort interface {
	Verifier
	Register(ctx context.Context, req RegisterRequest) (*domain.Profile, error)
	Login(ctx context.Context, req LoginRequest) (string, *domain.Profile, error)
	GetUser(ctx context.Context, userID string) (*domain.Profile, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// VerifyToken validates a token and returns its identity.
func (a *AuthAdapter) VerifyToken(ctx context.Context, token string) (domain.Identity, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceValidateToken,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Identity{}, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		UserID:   resp.UserID,
		Username: resp.Username,
	}, nil
}

// Register creates a user account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*domain.Profile, error) {
	var resp RegisterResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRegister,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	if resp.Fault != nil {
		return nil, resp.Fault
	}
	return resp.User, nil
}

// Login checks credentials and returns an issued token.
func (a *AuthAdapter) Login(ctx context.Context, req LoginRequest) (string, *domain.Profile, error) {
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLogin,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return "", nil, fmt.Errorf("login request failed: %w", err)
	}
	if resp.Fault != nil {
		return "", nil, resp.Fault
	}
	return resp.Token, resp.User, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetUser,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", err)
	}
	if resp.Fault != nil {
		return nil, resp.Fault
	}
	return resp.User, nil
}
