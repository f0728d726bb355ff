package ports

import (
	"context"

	"github.com/worldscope/countries-api/internal/core/domain"
)

// AuthResult is returned by Register and Login: the authenticated identity
// plus a signed, time-bounded session token binding it.
type AuthResult struct {
	Identity domain.Identity
	Token    string
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	// Verify checks a token without side effects and returns the identity
	// it binds. domain.ErrMissingToken for an empty token,
	// domain.ErrInvalidToken for anything malformed, badly signed or expired.
	Verify(token string) (domain.Identity, error)
}
