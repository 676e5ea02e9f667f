package serverutils

import (
	"errors"

	"multimodal-rag-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperror.ErrExtractionFailure):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrBackendUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		msg := apperror.Message(err)
		if code == fiber.StatusInternalServerError {
			msg = "Internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, msg))
	}
}
