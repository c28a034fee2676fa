package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"laporan/internal/http/middleware"
)

// errorPayload is the JSON error body shared by every endpoint.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusErrors maps statuses reaching ErrorHandler to their code and safe message.
var statusErrors = map[int]errorEnvelope{
	fiber.StatusBadRequest:            {"BAD_REQUEST", "bad request"},
	fiber.StatusNotFound:              {"NOT_FOUND", "resource not found"},
	fiber.StatusMethodNotAllowed:      {"METHOD_NOT_ALLOWED", "method not allowed"},
	fiber.StatusRequestEntityTooLarge: {"PAYLOAD_TOO_LARGE", "request body too large"},
	fiber.StatusUnsupportedMediaType:  {"UNSUPPORTED_MEDIA_TYPE", "unsupported media type"},
	fiber.StatusServiceUnavailable:    {"SERVICE_UNAVAILABLE", "service unavailable"},
}

// writeError writes an error without leaking internal details. Browsers that
// prefer HTML get the message as plain text; everyone else gets the JSON envelope.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	rid := middleware.RequestIDFrom(c)
	if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(status).SendString(message + " (request " + rid + ")")
	}
	return c.Status(status).JSON(errorPayload{
		RequestID: rid,
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// ErrorHandler returns the Fiber global error handler. Errors that are not
// *fiber.Error are logged and answered with INTERNAL_ERROR.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			slog.ErrorContext(c.UserContext(), "unhandled_error",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
		}

		e, ok := statusErrors[status]
		if !ok {
			e = errorEnvelope{"INTERNAL_ERROR", "internal server error"}
		}
		return writeError(c, status, e.Code, e.Message)
	}
}
