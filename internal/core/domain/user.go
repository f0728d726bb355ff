package domain

import (
	"errors"
	"time"
)

var (
	ErrUserExists         = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrCountryNotFound    = errors.New("country not found")
)

// User models a registered account. Favorites holds country codes in
// insertion order; membership is the only semantic property, duplicates are
// never stored.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Favorites    []string  `json:"favorite_countries"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasFavorite reports whether code is already in the user's favorites.
func (u *User) HasFavorite(code string) bool {
	for _, c := range u.Favorites {
		if c == code {
			return true
		}
	}
	return false
}

// Identity is the stable id/username pair proven by a verified token,
// independent of any single token's lifetime.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
