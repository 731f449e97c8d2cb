package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-engine/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	ServiceName string
	Scopes      []string
	ViaAPIKey   bool
}

// AuthMiddleware validates bearer tokens or API keys. When neither a
// JWT secret nor an API key hash is configured, authentication is
// disabled (development mode).
type AuthMiddleware struct {
	tokens     *TokenManager
	apiKeyHash string
	enabled    bool
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, jwtSecret, apiKeyHash string) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:     tokens,
		apiKeyHash: apiKeyHash,
		enabled:    jwtSecret != "" || apiKeyHash != "",
	}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if !m.enabled {
		return c.Next()
	}

	if apiKey := c.Get("X-API-Key"); apiKey != "" && m.apiKeyHash != "" {
		if !CompareAPIKey(m.apiKeyHash, apiKey) {
			return util.NewUnauthorized("invalid api key")
		}
		c.Locals(principalKey, &Principal{ViaAPIKey: true})
		return c.Next()
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{
		ServiceName: claims.ServiceName,
		Scopes:      claims.Scopes,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
