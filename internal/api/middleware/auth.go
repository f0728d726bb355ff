package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/worldscope/countries-api/internal/api/metrics"
	"github.com/worldscope/countries-api/internal/core/domain"
	"github.com/worldscope/countries-api/internal/core/ports"
)

// identityKey is the echo context key the verified identity is stored under.
const identityKey = "identity"

// Auth validates the bearer token on protected routes and injects the
// verified identity into the request context. Token checks are stateless;
// errors surface as domain sentinels for the centralized error handler.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return err
			}

			identity, err := auth.Verify(token)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return err
			}

			metrics.TokenVerificationsTotal.WithLabelValues("success").Inc()
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", domain.ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", domain.ErrMissingToken
	}
	return parts[1], nil
}

// Identity returns the verified identity injected by Auth. The boolean is
// false when the middleware did not run on this route.
func Identity(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(identityKey).(domain.Identity)
	return identity, ok
}
