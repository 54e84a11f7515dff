package api

import (
	"errors"
	"log"

	"github.com/example/task-tracker/domain/apperror"
	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindAuthentication:
		return fiber.StatusUnauthorized
	case apperror.KindAuthorization:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindInternal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError sends err as an envelope. Classified faults keep their message;
// anything else is a transport or storage failure and is logged, not shown.
func writeError(c *fiber.Ctx, err error) error {
	fault := apperror.As(err)
	if fault.Kind == apperror.KindInternal {
		log.Printf("[api] %s %s failed: %v", c.Method(), c.Path(), err)
	}
	return reject(c, StatusFor(fault.Kind), fault.Message)
}

// errorHandler renders errors that escape a handler, including fiber's own.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return reject(c, fe.Code, fe.Message)
	}
	return writeError(c, err)
}
