package serverutils

import (
	"errors"

	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is installed as fiber.Config.ErrorHandler. Handlers return
// errors from the errs package and this maps them to status codes. Anything
// unknown becomes a generic 500 and is logged in full.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status, body := mapError(err)
		if status == fiber.StatusInternalServerError {
			log.Error("HTTP", "Unhandled request error", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}
		return ctx.Status(status).JSON(body)
	}
}

func mapError(err error) (int, *BaseResponse) {
	var quota *errs.QuotaExceededError
	var validation *errs.ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		return fiber.StatusUnauthorized, errorResponseWithCode(fiber.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required", nil)
	case errors.Is(err, errs.ErrProfileNotFound):
		return fiber.StatusNotFound, errorResponseWithCode(fiber.StatusNotFound, "PROFILE_NOT_FOUND", "Account profile not found", nil)
	case errors.Is(err, errs.ErrNoWorkspace):
		return fiber.StatusConflict, errorResponseWithCode(fiber.StatusConflict, "NO_WORKSPACE", "Account is not bound to a workspace", nil)
	case errors.Is(err, errs.ErrAccessDenied):
		return fiber.StatusForbidden, errorResponseWithCode(fiber.StatusForbidden, "ACCESS_DENIED", errs.ErrAccessDenied.Error(), nil)
	case errors.Is(err, errs.ErrUpgradeRequired):
		return fiber.StatusPaymentRequired, errorResponseWithCode(fiber.StatusPaymentRequired, "UPGRADE_REQUIRED", errs.ErrUpgradeRequired.Error(), nil)
	case errors.As(err, &quota):
		return fiber.StatusTooManyRequests, errorResponseWithCode(fiber.StatusTooManyRequests, "QUOTA_EXCEEDED", quota.Error(), quota)
	case errors.Is(err, errs.ErrRateLimited):
		return fiber.StatusTooManyRequests, errorResponseWithCode(fiber.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down", nil)
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, errorResponseWithCode(fiber.StatusBadRequest, "VALIDATION_ERROR", validation.Error(), validation)
	case errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError:
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}
	return fiber.StatusInternalServerError, errorResponseWithCode(fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
