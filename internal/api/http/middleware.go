package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk-service/internal/observability"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// RegisterMiddlewares installs, outermost first: the per-request deadline, error
// rendering with panic recovery, and the request logger.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(deadline(timeout))
	}
	app.Use(renderErrors(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// ErrorHandler renders errors that escape the middleware chain, such as an oversized
// body rejected by fasthttp, in the same JSON shape.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, logger, nil, err)
	}
}

// NotFound answers requests that matched no route.
func NotFound(c *fiber.Ctx) error {
	return apperrors.NewDomainError(apperrors.CodeNotFound, fmt.Sprintf("no route for %s %s", c.Method(), c.Path()),
		http.StatusNotFound, nil)
}

func deadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func renderErrors(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("handler panicked",
					zap.String("path", c.Path()),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
			}
			if err == nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				err = apperrors.NewDomainError(apperrors.CodeTimeout, "request timed out", http.StatusGatewayTimeout, nil)
			}
			err = writeError(c, logger, metrics, err)
		}()
		return c.Next()
	}
}

// writeError sends {"error": message, "code": code} plus "details" when present.
// Causes of 5xx errors are logged, never sent.
func writeError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) error {
	domainErr := apperrors.ToDomainError(err)
	metrics.RecordError(c.Path(), c.Method(), domainErr.Code)

	if domainErr.HTTPStatus >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals("request_id")),
			zap.String("code", domainErr.Code),
			zap.Error(domainErr))
	}

	body := fiber.Map{"error": domainErr.Message, "code": domainErr.Code}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(body)
}
