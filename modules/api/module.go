package api

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP driving adapter. It reaches the other modules only
// through their ports.
type APIModule struct {
	app             *fiber.App
	addr            string
	corsOrigins     string
	authAdapter     auth.AuthPort
	taskAdapter     task.TaskPort
	activityAdapter activity.ActivityPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule configured from the environment.
func NewModule() *APIModule {
	return &APIModule{
		addr:        getEnv("HTTP_ADDR", ":3000"),
		corsOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	case "activity":
		m.activityAdapter = activity.NewActivityAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.taskAdapter == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.activityAdapter == nil {
		return fmt.Errorf("activity dependency not set")
	}

	handlers := NewHandlers(m.authAdapter, m.taskAdapter, m.activityAdapter)
	m.app = newApp(handlers, auth.NewGate(m.authAdapter), m.corsOrigins)

	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.addr,
		},
	}
}

// newApp builds the fiber app with middleware and routes.
func newApp(handlers *Handlers, gate *auth.Gate, corsOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return respond(c, fiber.StatusOK, fiber.Map{"status": "healthy"}, "")
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)

	protected := api.Group("", AuthMiddleware(gate))
	protected.Get("/auth/me", handlers.Me)
	protected.Get("/tasks", handlers.ListTasks)
	protected.Post("/tasks", handlers.CreateTask)
	protected.Put("/tasks/:id", handlers.UpdateTask)
	protected.Delete("/tasks/:id", handlers.DeleteTask)
	protected.Get("/activity", handlers.Activity)

	return app
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
