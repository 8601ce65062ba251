package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"archiveapi/internal/http/middleware"
	"archiveapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps domain errors onto HTTP statuses. Validation problems
// carry their message through; everything else gets a safe generic message.
func writeServiceError(c *fiber.Ctx, err error) error {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", vErr.Error())
	}
	if errors.Is(err, service.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found or you do not have permission")
	}
	if errors.Is(err, service.ErrInvalidCredentials) {
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	}
	if errors.Is(err, service.ErrEmailTaken) {
		return writeError(c, fiber.StatusBadRequest, "EMAIL_TAKEN", "email already exists")
	}
	if errors.Is(err, service.ErrStorageNotConfigured) {
		return writeError(c, fiber.StatusServiceUnavailable, "STORAGE_NOT_CONFIGURED", "object storage is not configured")
	}

	var aErr *service.AssemblyError
	if errors.As(err, &aErr) {
		return writeError(c, fiber.StatusBadGateway, "ASSEMBLY_FAILED", "could not assemble the uploaded parts; the upload session was released")
	}
	var gwErr *service.GatewayError
	if errors.As(err, &gwErr) {
		return writeError(c, fiber.StatusBadGateway, "STORAGE_ERROR", "object storage request failed")
	}

	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
