package api

import (
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/task"
	"github.com/gofiber/fiber/v2"
)

const invalidBody = "Invalid request body"

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth     auth.AuthPort
	tasks    task.TaskPort
	activity activity.ActivityPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, taskPort task.TaskPort, activityPort activity.ActivityPort) *Handlers {
	return &Handlers{
		auth:     authPort,
		tasks:    taskPort,
		activity: activityPort,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var body registerBody
	if err := c.BodyParser(&body); err != nil {
		return reject(c, fiber.StatusBadRequest, invalidBody)
	}

	profile, err := h.auth.Register(c.UserContext(), auth.RegisterRequest{
		Username:        body.Username,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
	})
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, profile, "User registered successfully")
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body loginBody
	if err := c.BodyParser(&body); err != nil {
		return reject(c, fiber.StatusBadRequest, invalidBody)
	}

	token, profile, err := h.auth.Login(c.UserContext(), auth.LoginRequest{
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, loginData{Token: token, User: profile}, "Login successful")
}

// Me returns the profile of the authenticated caller.
func (h *Handlers) Me(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, auth.ReasonNoHeader.Message())
	}

	profile, err := h.auth.GetUser(c.UserContext(), identity.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, profile, "")
}

// ListTasks returns the caller's tasks, newest first.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, auth.ReasonNoHeader.Message())
	}

	tasks, err := h.tasks.ListTasks(c.UserContext(), identity)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, tasks, "Tasks retrieved successfully")
}

// CreateTask creates a task owned by the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, auth.ReasonNoHeader.Message())
	}

	var body createTaskBody
	if err := c.BodyParser(&body); err != nil {
		return reject(c, fiber.StatusBadRequest, invalidBody)
	}

	created, err := h.tasks.CreateTask(c.UserContext(), identity, body.draft())
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, created, "Task created successfully")
}

// UpdateTask applies a partial update to a task the caller owns.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, auth.ReasonNoHeader.Message())
	}

	var body updateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return reject(c, fiber.StatusBadRequest, invalidBody)
	}

	updated, err := h.tasks.UpdateTask(c.UserContext(), identity, c.Params("id"), body.patch())
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, updated, "Task updated successfully")
}

// DeleteTask removes a task the caller owns.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, auth.ReasonNoHeader.Message())
	}

	id := c.Params("id")
	if err := h.tasks.DeleteTask(c.UserContext(), identity, id); err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, deleteData{ID: id}, "Task deleted successfully")
}

// Activity returns the caller's recent task activity.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, auth.ReasonNoHeader.Message())
	}

	entries, err := h.activity.Recent(c.UserContext(), identity)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, fiber.StatusOK, entries, "")
}
