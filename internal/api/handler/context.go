package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/worldscope/countries-api/internal/api/middleware"
	"github.com/worldscope/countries-api/internal/core/domain"
)

// ctxIdentity extracts the verified identity injected by the Auth middleware
// and fast-fails before any service call: its presence proves the middleware
// ran, and every protected handler passes it explicitly downstream so no
// service reads ambient request state.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := middleware.Identity(c)
	if !ok || identity.ID == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}
