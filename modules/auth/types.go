package auth

import (
	"github.com/example/task-tracker/domain/apperror"
	domain "github.com/example/task-tracker/domain/user"
)

// Service names registered by the auth module.
const (
	ServiceRegister      = "register"
	ServiceLogin         = "login"
	ServiceValidateToken = "validate-token"
	ServiceGetUser       = "get-user"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	User  *domain.Profile `json:"user,omitempty"`
	Fault *apperror.Error `json:"fault,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a user login response with the issued token.
type LoginResponse struct {
	Token string          `json:"token,omitempty"`
	User  *domain.Profile `json:"user,omitempty"`
	Fault *apperror.Error `json:"fault,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"userId"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	User  *domain.Profile `json:"user,omitempty"`
	Fault *apperror.Error `json:"fault,omitempty"`
}
