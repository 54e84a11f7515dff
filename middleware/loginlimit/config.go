package loginlimit

import (
	"time"
)

// Config holds login throttle configuration.
type Config struct {
	// RedisAddr is the Redis server address (e.g., "localhost:6379")
	RedisAddr string

	// RedisPassword is the Redis authentication password (optional)
	RedisPassword string

	// RedisDB is the Redis database number
	RedisDB int

	// MaxAttempts is the number of login attempts allowed per username in Window
	MaxAttempts int

	// Window is the sliding window over which attempts are counted
	Window time.Duration

	// KeyPrefix is the prefix for Redis keys
	KeyPrefix string

	// Service is the request-reply service the throttle wraps
	Service string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RedisAddr:   "localhost:6379",
		MaxAttempts: 5,
		Window:      time.Minute,
		KeyPrefix:   "loginlimit:",
		Service:     "login",
	}
}

// Option is a function that modifies Config.
type Option func(*Config)

// WithRedisAddr sets the Redis server address.
func WithRedisAddr(addr string) Option {
	return func(c *Config) {
		c.RedisAddr = addr
	}
}

// WithRedisPassword sets the Redis authentication password.
func WithRedisPassword(password string) Option {
	return func(c *Config) {
		c.RedisPassword = password
	}
}

// WithRedisDB sets the Redis database number.
func WithRedisDB(db int) Option {
	return func(c *Config) {
		c.RedisDB = db
	}
}

// WithLimit sets the number of attempts allowed per window. Non-positive
// values are ignored.
func WithLimit(maxAttempts int, window time.Duration) Option {
	return func(c *Config) {
		if maxAttempts > 0 {
			c.MaxAttempts = maxAttempts
		}
		if window > 0 {
			c.Window = window
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// WithService sets the name of the service to throttle.
func WithService(name string) Option {
	return func(c *Config) {
		c.Service = name
	}
}
