package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/worldscope/countries-api/internal/api/metrics"
	"github.com/worldscope/countries-api/internal/core/ports"
)

// FavoritesHandler exposes the per-user favorites set. Every response body
// is the authoritative post-operation state returned by the service, which
// clients rely on to reconcile their local mirror.
type FavoritesHandler struct {
	service ports.FavoritesService
}

func NewFavoritesHandler(service ports.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{service: service}
}

type addFavoriteRequest struct {
	CountryCode string `json:"countryCode" validate:"required"`
}

type favoritesResponse struct {
	FavoriteCountries []string `json:"favoriteCountries"`
}

// List returns the user's favorite country codes.
//
// @Summary      List favorites
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  favoritesResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/favorites [get]
func (h *FavoritesHandler) List(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	favorites, err := h.service.List(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favoritesResponse{FavoriteCountries: favorites})
}

// Add adds a country code to the user's favorites. Idempotent: adding a
// present code is a no-op that still returns the current set.
//
// @Summary      Add a favorite
// @Tags         favorites
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addFavoriteRequest  true  "Country code"
// @Success      200   {object}  favoritesResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/favorites [post]
func (h *FavoritesHandler) Add(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req addFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	favorites, err := h.service.Add(c.Request().Context(), identity, req.CountryCode)
	if err != nil {
		return err
	}

	metrics.FavoritesMutationsTotal.WithLabelValues("add").Inc()
	return c.JSON(http.StatusOK, favoritesResponse{FavoriteCountries: favorites})
}

// Remove deletes a country code from the user's favorites. Idempotent:
// removing an absent code is a no-op that still returns the current set.
//
// @Summary      Remove a favorite
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        countryCode  path      string  true  "Country code (e.g. CAN)"
// @Success      200          {object}  favoritesResponse
// @Failure      401          {object}  map[string]string
// @Router       /api/favorites/{countryCode} [delete]
func (h *FavoritesHandler) Remove(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	code := c.Param("countryCode")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "countryCode is required")
	}

	favorites, err := h.service.Remove(c.Request().Context(), identity, code)
	if err != nil {
		return err
	}

	metrics.FavoritesMutationsTotal.WithLabelValues("remove").Inc()
	return c.JSON(http.StatusOK, favoritesResponse{FavoriteCountries: favorites})
}
