package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jira-gateway/internal/directory"
	"github.com/spec-kit/jira-gateway/internal/domain"
	apperrors "github.com/spec-kit/jira-gateway/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// HeaderAPIKey is the credential header checked on protected routes.
const HeaderAPIKey = "X-API-Key"

// APIKeyMiddleware validates presented API keys and loads identities.
type APIKeyMiddleware struct {
	directory directory.Directory
}

// NewAPIKeyMiddleware constructs middleware.
func NewAPIKeyMiddleware(dir directory.Directory) *APIKeyMiddleware {
	return &APIKeyMiddleware{directory: dir}
}

// Handle enforces authentication for protected routes.
func (m *APIKeyMiddleware) Handle(c *fiber.Ctx) error {
	apiKey := c.Get(HeaderAPIKey)
	if apiKey == "" {
		return apperrors.NewUnauthorized("missing or invalid API key")
	}

	identity, err := m.directory.Lookup(c.UserContext(), apiKey)
	if err != nil {
		if errors.Is(err, directory.ErrUnknownKey) {
			return apperrors.NewUnauthorized("missing or invalid API key")
		}
		return apperrors.MapError(err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	return identity, ok
}
