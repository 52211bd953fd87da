// Package handler exposes the wedding services over HTTP and answers RSVP
// replies that arrive over WhatsApp.
package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/budget"
	"wedding-invitation/internal/guest"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/settings"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/whatsapp"
)

type ErrorResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

func statusToErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	case fiber.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

func JsonOK(c *fiber.Ctx, message string, data any) error {
	return jsonSuccess(c, fiber.StatusOK, message, "ok", data)
}

func JsonCreated(c *fiber.Ctx, message string, data any) error {
	return jsonSuccess(c, fiber.StatusCreated, message, "created", data)
}

func JsonUpdated(c *fiber.Ctx, message string, data any) error {
	return jsonSuccess(c, fiber.StatusOK, message, "updated", data)
}

func JsonDeleted(c *fiber.Ctx, message string, data any) error {
	return jsonSuccess(c, fiber.StatusOK, message, "deleted", data)
}

func jsonSuccess(c *fiber.Ctx, status int, message, fallback string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// JsonError writes a non-validation error
func JsonError(c *fiber.Ctx, status int, message string) error {
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	if strings.TrimSpace(message) == "" {
		message = fiber.ErrInternalServerError.Message
	}
	return c.Status(status).JSON(ErrorResponse{
		Success:   false,
		Message:   message,
		ErrorCode: statusToErrorCode(status),
	})
}

// JsonValidationError writes a 422 with per-field messages
func JsonValidationError(c *fiber.Ctx, fieldErrors map[string][]string) error {
	if fieldErrors == nil {
		fieldErrors = map[string][]string{}
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
		Success:   false,
		Message:   "validation failed",
		ErrorCode: "VALIDATION_ERROR",
		Errors:    fieldErrors,
	})
}

// validationMessages keys each failure by the field name the validator
// reports, which is the json name for services built on validation.New
func validationMessages(verrs validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[field] = append(out[field], msg)
	}
	return out
}

// Fail maps a service error onto the HTTP error envelope
func Fail(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return JsonValidationError(c, validationMessages(verrs))
	}

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return JsonError(c, fe.Code, fe.Message)
	case errors.Is(err, guest.ErrEmptyName):
		return JsonValidationError(c, map[string][]string{"name": {"required"}})
	case errors.Is(err, budget.ErrNegativeAmount),
		errors.Is(err, settings.ErrUnknownField),
		errors.Is(err, settings.ErrInvalidValue),
		errors.Is(err, whatsapp.ErrNotOnWhatsApp),
		errors.Is(err, ErrNoPhone):
		return JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, guest.ErrUnknownField):
		return JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return JsonError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrDuplicate), errors.Is(err, rsvp.ErrAlreadySubmitted):
		return JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrSchemaMissing):
		log.Error().Err(err).Msg("database schema missing")
		return JsonError(c, fiber.StatusServiceUnavailable, storage.SetupHint(err))
	case errors.Is(err, storage.ErrAuth):
		log.Error().Err(err).Msg("database rejected credentials")
		return JsonError(c, fiber.StatusInternalServerError, "store configuration problem")
	case errors.Is(err, storage.ErrUnavailable):
		log.Error().Err(err).Msg("database unavailable")
		return JsonError(c, fiber.StatusServiceUnavailable, "database unavailable, please retry")
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return JsonError(c, fiber.StatusInternalServerError, "")
}

func badRequest(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}
