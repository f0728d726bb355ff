package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/worldscope/countries-api/internal/api/metrics"
	"github.com/worldscope/countries-api/internal/core/domain"
	"github.com/worldscope/countries-api/internal/core/ports"
)

type AuthHandler struct {
	authService      ports.AuthService
	favoritesService ports.FavoritesService
}

func NewAuthHandler(authService ports.AuthService, favoritesService ports.FavoritesService) *AuthHandler {
	return &AuthHandler{authService: authService, favoritesService: favoritesService}
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type identityResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type authResponse struct {
	User  identityResponse `json:"user"`
	Token string           `json:"token"`
}

type currentUserResponse struct {
	ID                string   `json:"id"`
	Username          string   `json:"username"`
	FavoriteCountries []string `json:"favoriteCountries"`
}

// Register creates a new user account and issues a session token.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Credentials"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, authResponse{
		User:  identityResponse{ID: result.Identity.ID, Username: result.Identity.Username},
		Token: result.Token,
	})
}

// Login authenticates a user and issues a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, authResponse{
		User:  identityResponse{ID: result.Identity.ID, Username: result.Identity.Username},
		Token: result.Token,
	})
}

// CurrentUser returns the authenticated user's identity and favorites.
//
// @Summary      Get the current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  currentUserResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/user [get]
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	favorites, err := h.favoritesService.List(c.Request().Context(), identity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, currentUserResponse{
		ID:                identity.ID,
		Username:          identity.Username,
		FavoriteCountries: favorites,
	})
}
