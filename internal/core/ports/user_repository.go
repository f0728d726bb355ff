package ports

import (
	"context"

	"github.com/worldscope/countries-api/internal/core/domain"
)

// UserRepository defines the persistence contract for user records.
// Favorites are mutated only through AddFavorite/RemoveFavorite; both are
// idempotent at the storage level and implementations must leave the stored
// set duplicate-free.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	AddFavorite(ctx context.Context, userID, code string) error
	RemoveFavorite(ctx context.Context, userID, code string) error
}
