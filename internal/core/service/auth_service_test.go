package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/worldscope/countries-api/internal/core/domain"
)

type stubUserRepo struct {
	users map[string]*domain.User // keyed by id
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Favorites = append([]string(nil), u.Favorites...)
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) AddFavorite(_ context.Context, userID, code string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if !u.HasFavorite(code) {
		u.Favorites = append(u.Favorites, code)
	}
	return nil
}

func (r *stubUserRepo) RemoveFavorite(_ context.Context, userID, code string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	kept := u.Favorites[:0]
	for _, c := range u.Favorites {
		if c != code {
			kept = append(kept, c)
		}
	}
	u.Favorites = kept
	return nil
}

func newAuthService(repo *stubUserRepo) *AuthService {
	return NewAuthService(repo, "secret", time.Hour, zerolog.Nop())
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo)

	result, err := svc.Register(context.Background(), "alice", "pass12345")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if result.Identity.ID == "" || result.Identity.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", result.Identity)
	}
	if result.Token == "" {
		t.Fatalf("expected token, got empty")
	}

	stored := repo.users[result.Identity.ID]
	if stored == nil {
		t.Fatalf("user not persisted")
	}
	if stored.PasswordHash == "pass12345" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass12345")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(stored.Favorites) != 0 {
		t.Fatalf("expected empty favorites, got %v", stored.Favorites)
	}
}

func TestAuthService_Register_TokenVerifies(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	result, err := svc.Register(context.Background(), "alice", "pass12345")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	identity, err := svc.Verify(result.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if identity != result.Identity {
		t.Fatalf("expected identity %+v, got %+v", result.Identity, identity)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo)

	if _, err := svc.Register(context.Background(), "bob", "pass12345"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "other9876"); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("duplicate register created a record, have %d users", len(repo.users))
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), "", "pass12345"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "carol", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	registered, err := svc.Register(context.Background(), "carol", "s3cret123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := svc.Login(context.Background(), "carol", "s3cret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Identity != registered.Identity {
		t.Fatalf("expected identity %+v, got %+v", registered.Identity, result.Identity)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(result.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["username"] != "carol" || claims["sub"] != registered.Identity.ID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

// Unknown usernames and wrong passwords must be indistinguishable: same
// error value, nothing else returned.
func TestAuthService_Login_InvalidIsUniform(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), "dilmi", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	wrongPass, errWrong := svc.Login(context.Background(), "dilmi", "badpass99")
	unknown, errUnknown := svc.Login(context.Background(), "ghost", "badpass99")

	if errWrong != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrong)
	}
	if errUnknown != domain.ErrInvalidCredentials {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if errWrong != errUnknown {
		t.Fatalf("errors differ: %v vs %v", errWrong, errUnknown)
	}
	if wrongPass != nil || unknown != nil {
		t.Fatalf("expected nil results, got %+v and %+v", wrongPass, unknown)
	}
}

func TestAuthService_Verify_MissingToken(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, err := svc.Verify(""); err != domain.ErrMissingToken {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestAuthService_Verify_Malformed(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, err := svc.Verify("not-a-token"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Verify_WrongSecret(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub":      "u1",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	if _, err := svc.Verify(token); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Verify_Expired(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	token := signToken(t, "secret", jwt.MapClaims{
		"sub":      "u1",
		"username": "alice",
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := svc.Verify(token); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAuthService_Verify_MissingClaims(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	token := signToken(t, "secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := svc.Verify(token); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for claimless token, got %v", err)
	}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}
