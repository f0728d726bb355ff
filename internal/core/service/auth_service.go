package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/worldscope/countries-api/internal/core/domain"
	"github.com/worldscope/countries-api/internal/core/ports"
)

// dummyHash is a bcrypt hash compared against when the username does not
// resolve, so unknown-user and wrong-password logins cost the same.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService implements registration, login and stateless token verification.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// Register creates a user with an empty favorites set and issues a token.
// Returns domain.ErrUserExists when the username is taken.
func (s *AuthService) Register(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Favorites:    []string{},
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	identity := domain.Identity{ID: created.ID, Username: created.Username}
	token, err := s.generateToken(identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")

	return &ports.AuthResult{Identity: identity, Token: token}, nil
}

// Login verifies credentials and issues a token. Unknown usernames and wrong
// passwords both return domain.ErrInvalidCredentials; the caller cannot tell
// them apart by error value, response shape or timing.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		// Equalize cost with the known-user path before failing.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	identity := domain.Identity{ID: user.ID, Username: user.Username}
	token, err := s.generateToken(identity)
	if err != nil {
		return nil, err
	}

	return &ports.AuthResult{Identity: identity, Token: token}, nil
}

// Verify parses and validates a token, returning the identity it binds.
// Pure check: no state is read or written.
func (s *AuthService) Verify(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	id, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	return domain.Identity{ID: id, Username: username}, nil
}

func (s *AuthService) generateToken(identity domain.Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub":      identity.ID,
		"username": identity.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
