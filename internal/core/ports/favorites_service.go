package ports

import (
	"context"

	"github.com/worldscope/countries-api/internal/core/domain"
)

// FavoritesService mutates and reads a user's favorite country codes.
// Every call takes the caller's verified identity explicitly; there is no
// cross-user access path. Returned slices are always the authoritative
// post-mutation state read back from the store, never an echo of the request.
type FavoritesService interface {
	List(ctx context.Context, identity domain.Identity) ([]string, error)
	Add(ctx context.Context, identity domain.Identity, code string) ([]string, error)
	Remove(ctx context.Context, identity domain.Identity, code string) ([]string, error)
}
