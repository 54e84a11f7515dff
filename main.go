package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/task-tracker/middleware/loginlimit"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Task Tracker ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Middleware must be registered before the modules whose services it wraps.
	if redisAddr := os.Getenv("LOGIN_LIMIT_REDIS_ADDR"); redisAddr != "" {
		app.Register(loginlimit.New(
			loginlimit.WithRedisAddr(redisAddr),
			loginlimit.WithRedisPassword(os.Getenv("LOGIN_LIMIT_REDIS_PASSWORD")),
			loginlimit.WithLimit(getEnvInt("LOGIN_LIMIT_MAX", 5), getEnvDuration("LOGIN_LIMIT_WINDOW", time.Minute)),
			loginlimit.WithService(auth.ServiceLogin),
		))
	} else {
		log.Println("Login throttle disabled (LOGIN_LIMIT_REDIS_ADDR not set)")
	}

	app.Register(auth.NewModule())
	app.Register(activity.NewModule())
	app.Register(task.NewModule())
	app.Register(api.NewModule()) // Depends on auth, task, activity

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/auth/register  - Register a new user")
	log.Println("  POST   /api/auth/login     - Login and get a token")
	log.Println("  GET    /health             - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/auth/me        - Current user profile")
	log.Println("  GET    /api/tasks          - List your tasks")
	log.Println("  POST   /api/tasks          - Create a task")
	log.Println("  PUT    /api/tasks/:id      - Update a task")
	log.Println("  DELETE /api/tasks/:id      - Delete a task")
	log.Println("  GET    /api/activity       - Recent task activity")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Ignoring invalid %s %q: %v", key, raw, err)
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Ignoring invalid %s %q: %v", key, raw, err)
		return fallback
	}
	return d
}
