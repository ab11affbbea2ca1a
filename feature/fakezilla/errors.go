package fakezilla

import (
	"errors"
	"fmt"
	"net/http"

	"bugsync/core/errs"
	"bugsync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Error codes reported in the "code" member of error bodies. They follow the
// numbering of the real tracker where one exists.
const (
	CodeInvalidBugID      = 54
	CodeUserMissing       = 51
	CodeMissingField      = 50
	CodeBugMissing        = 101
	CodeCommentMissing    = 111
	CodeAttachmentMissing = 100
	CodeLoginFailed       = 300
	CodeLoginRequired     = 410
	CodeInvalidValue      = 32000
	CodeInternal          = 100500
)

// APIError is rendered as {"error": true, "code": Code, "message": Message}.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d (code %d): %s", e.Status, e.Code, e.Message)
}

func fail(status, code int, format string, args ...any) *APIError {
	return &APIError{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

// invalid turns a record validation error into a 400.
func invalid(err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		msg := e.Message
		if e.Field != "" {
			msg = e.Field + ": " + msg
		}
		return fail(http.StatusBadRequest, CodeInvalidValue, "%s", msg)
	}
	return err
}

// ErrorHandler renders every error as a tracker error body.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			apiErr   *APIError
			fiberErr *fiber.Error
		)
		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &fiberErr):
			apiErr = &APIError{Status: fiberErr.Code, Code: fiberErr.Code, Message: fiberErr.Message}
		default:
			logger.WithRayID(log, c).Error("Unhandled error", zap.Error(err))
			apiErr = &APIError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: err.Error()}
		}
		return c.Status(apiErr.Status).JSON(fiber.Map{
			"error":   true,
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
	}
}
