// Package loginlimit throttles repeated login attempts per username with a
// Redis sliding window. It wraps the auth module's login service as a mono
// middleware module.
package loginlimit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/task-tracker/domain/apperror"
	"github.com/example/task-tracker/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// TooManyAttempts is the message returned to a throttled caller.
const TooManyAttempts = "Too many login attempts, please try again later"

const maxUsernameKeyLength = 128

type attemptCounter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Reset(ctx context.Context, key string) error
}

// Middleware wraps the login service so that each username gets at most
// MaxAttempts tries per Window. A successful login clears the count. Redis
// failures let the attempt through.
type Middleware struct {
	config  Config
	client  *redis.Client
	counter attemptCounter
	logger  *slog.Logger
}

// Compile-time interface checks
var _ mono.Module = (*Middleware)(nil)
var _ mono.MiddlewareModule = (*Middleware)(nil)

// New creates a new login throttle.
func New(opts ...Option) *Middleware {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Middleware{
		config: config,
		logger: slog.Default().With("module", "login-limit"),
	}
}

// Name returns the middleware name.
func (m *Middleware) Name() string {
	return "login-limit"
}

// Start connects to Redis.
func (m *Middleware) Start(ctx context.Context) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.config.RedisAddr,
		Password:     m.config.RedisPassword,
		DB:           m.config.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.config.RedisAddr, err)
	}

	m.counter = NewLimiter(m.client, m.config.KeyPrefix)
	m.logger.Info("Login throttle started",
		"redis", m.config.RedisAddr,
		"service", m.config.Service,
		"max_attempts", m.config.MaxAttempts,
		"window", m.config.Window)
	return nil
}

// Stop closes the Redis connection.
func (m *Middleware) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Error("Failed to close Redis connection", "error", err)
			return err
		}
	}
	m.logger.Info("Login throttle stopped")
	return nil
}

// OnServiceRegistration wraps the configured request-reply service.
func (m *Middleware) OnServiceRegistration(
	_ context.Context,
	reg types.ServiceRegistration,
) types.ServiceRegistration {
	if reg.Type != types.ServiceTypeRequestReply || reg.RequestHandler == nil || reg.Name != m.config.Service {
		return reg
	}

	original := reg.RequestHandler
	m.logger.Debug("Wrapping service with login throttle", "service", reg.Name)

	reg.RequestHandler = func(ctx context.Context, req *types.Msg) ([]byte, error) {
		username := usernameOf(req.Data)
		if username == "" || m.counter == nil {
			return original(ctx, req)
		}
		key := m.config.Service + ":" + username

		result, err := m.counter.Allow(ctx, key, m.config.MaxAttempts, m.config.Window)
		if err != nil {
			m.logger.Error("Login throttle check failed", "username", username, "error", err)
			return original(ctx, req)
		}

		if !result.Allowed {
			m.logger.Warn("Login attempts exceeded",
				"username", username,
				"limit", m.config.MaxAttempts,
				"reset_at", result.ResetAt)
			return json.Marshal(auth.LoginResponse{
				Fault: apperror.Unauthenticated(TooManyAttempts),
			})
		}

		resp, err := original(ctx, req)
		if err == nil && loginSucceeded(resp) {
			if resetErr := m.counter.Reset(ctx, key); resetErr != nil {
				m.logger.Error("Failed to reset login attempts", "username", username, "error", resetErr)
			}
		}
		return resp, err
	}

	return reg
}

// OnModuleLifecycle passes through module lifecycle events unchanged.
func (m *Middleware) OnModuleLifecycle(
	_ context.Context,
	event types.ModuleLifecycleEvent,
) types.ModuleLifecycleEvent {
	return event
}

// OnConfigurationChange passes through configuration changes unchanged.
func (m *Middleware) OnConfigurationChange(
	_ context.Context,
	event types.ConfigurationEvent,
) types.ConfigurationEvent {
	return event
}

// OnOutgoingMessage passes through outgoing messages unchanged.
func (m *Middleware) OnOutgoingMessage(
	octx types.OutgoingMessageContext,
) types.OutgoingMessageContext {
	return octx
}

// OnEventConsumerRegistration passes through event consumer registrations unchanged.
func (m *Middleware) OnEventConsumerRegistration(
	_ context.Context,
	entry types.EventConsumerEntry,
) types.EventConsumerEntry {
	return entry
}

// OnEventStreamConsumerRegistration passes through event stream consumer registrations unchanged.
func (m *Middleware) OnEventStreamConsumerRegistration(
	_ context.Context,
	entry types.EventStreamConsumerEntry,
) types.EventStreamConsumerEntry {
	return entry
}

// usernameOf extracts the trimmed username from a login request body.
func usernameOf(data []byte) string {
	var req auth.LoginRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ""
	}
	username := strings.TrimSpace(req.Username)
	if len(username) > maxUsernameKeyLength {
		username = username[:maxUsernameKeyLength]
	}
	return username
}

func loginSucceeded(resp []byte) bool {
	var out auth.LoginResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return false
	}
	return out.Fault == nil && out.Token != ""
}
