package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/worldscope/countries-api/internal/core/domain"
	"github.com/worldscope/countries-api/internal/core/ports"
)

// FavoritesService mutates a user's favorite country codes under a verified
// identity. Add and Remove are idempotent, and every result is read back
// from the repository after the mutation so clients can treat it as ground
// truth for reconciliation.
type FavoritesService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewFavoritesService(repo ports.UserRepository, logger zerolog.Logger) *FavoritesService {
	return &FavoritesService{repo: repo, logger: logger}
}

func (s *FavoritesService) List(ctx context.Context, identity domain.Identity) ([]string, error) {
	user, err := s.repo.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return favorites(user), nil
}

func (s *FavoritesService) Add(ctx context.Context, identity domain.Identity, code string) ([]string, error) {
	if err := s.repo.AddFavorite(ctx, identity.ID, code); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("user_id", identity.ID).Str("code", code).Msg("favorite added")
	return favorites(user), nil
}

func (s *FavoritesService) Remove(ctx context.Context, identity domain.Identity, code string) ([]string, error) {
	if err := s.repo.RemoveFavorite(ctx, identity.ID, code); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("user_id", identity.ID).Str("code", code).Msg("favorite removed")
	return favorites(user), nil
}

// favorites normalizes a nil slice to an empty one so JSON responses always
// carry an array.
func favorites(user *domain.User) []string {
	if user.Favorites == nil {
		return []string{}
	}
	return user.Favorites
}
