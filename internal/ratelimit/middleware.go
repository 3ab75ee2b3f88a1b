package ratelimit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/jira-gateway/pkg/util/errorutil"
)

// Middleware consults the limiter before a request reaches the handlers.
type Middleware struct {
	limiter *Limiter
}

// NewMiddleware constructs the middleware.
func NewMiddleware(limiter *Limiter) *Middleware {
	return &Middleware{limiter: limiter}
}

// Handle admits or rejects the request based on the caller's IP address.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	allowed, err := m.limiter.Allow(c.UserContext(), c.IP())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !allowed {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(m.limiter.window.Seconds())))
		return apperrors.NewRateLimited()
	}
	return c.Next()
}
