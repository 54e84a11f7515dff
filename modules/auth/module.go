package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/task-tracker/domain/apperror"
	domain "github.com/example/task-tracker/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AuthModule provides authentication services.
type AuthModule struct {
	db         *gorm.DB
	service    *AuthService
	dbPath     string
	tokenCfg   TokenConfig
	bcryptCost int
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule configured from the environment.
func NewModule() *AuthModule {
	dbPath := os.Getenv("AUTH_DB_PATH")
	if dbPath == "" {
		dbPath = "auth.db"
	}
	return &AuthModule{
		dbPath:     dbPath,
		tokenCfg:   loadTokenConfig(),
		bcryptCost: loadBcryptCost(),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start initializes the auth module.
func (m *AuthModule) Start(_ context.Context) error {
	tokens, err := NewTokenService(m.tokenCfg)
	if err != nil {
		return fmt.Errorf("invalid token configuration: %w", err)
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	repo := NewUserRepository(db)
	hasher := NewPasswordHasherWithCost(m.bcryptCost)
	m.service = NewAuthService(repo, hasher, tokens)

	log.Printf("[auth] Module started (database: %s, token expiry: %s)", m.dbPath, tokens.ExpiresIn())
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRegister, json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegister, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceValidateToken, json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceValidateToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	log.Printf("[auth] Registered services: register, login, validate-token, get-user")
	return nil
}

// handleRegister handles user registration.
func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.service.Register(ctx, req)
	if err != nil {
		return RegisterResponse{Fault: toFault("register", err)}, nil
	}

	profile := user.ToProfile()
	return RegisterResponse{User: &profile}, nil
}

// handleLogin handles user login.
func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	token, user, err := m.service.Login(ctx, req)
	if err != nil {
		return LoginResponse{Fault: toFault("login", err)}, nil
	}

	profile := user.ToProfile()
	return LoginResponse{Token: token, User: &profile}, nil
}

// handleValidateToken handles token validation. Failures are a response, not
// an error, and carry no reason.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	identity, err := m.service.VerifyToken(ctx, req.Token)
	if err != nil {
		return ValidateTokenResponse{Valid: false}, nil
	}

	return ValidateTokenResponse{
		Valid:    true,
		UserID:   identity.UserID,
		Username: identity.Username,
	}, nil
}

// handleGetUser handles get user requests.
func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{Fault: toFault("get-user", err)}, nil
	}

	profile := user.ToProfile()
	return GetUserResponse{User: &profile}, nil
}

// toFault classifies err for the response payload. Unclassified errors are
// logged here and reach the caller only as a generic internal fault.
func toFault(op string, err error) *apperror.Error {
	fault := apperror.As(err)
	if fault.Kind == apperror.KindInternal {
		log.Printf("[auth] %s failed: %v", op, err)
	}
	return fault
}

// loadTokenConfig loads token configuration from environment variables.
func loadTokenConfig() TokenConfig {
	config := DefaultTokenConfig()

	if secret, ok := os.LookupEnv("JWT_SECRET"); ok {
		config.Secret = secret
	}

	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}

	if raw := os.Getenv("JWT_EXPIRES_IN"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			config.ExpiresIn = d
		} else {
			log.Printf("[auth] Ignoring invalid JWT_EXPIRES_IN %q: %v", raw, err)
		}
	}

	return config
}

// loadBcryptCost reads BCRYPT_COST, falling back to the default.
func loadBcryptCost() int {
	raw := os.Getenv("BCRYPT_COST")
	if raw == "" {
		return DefaultBcryptCost
	}
	cost, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[auth] Ignoring invalid BCRYPT_COST %q: %v", raw, err)
		return DefaultBcryptCost
	}
	return cost
}
