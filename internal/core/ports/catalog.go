package ports

import (
	"context"
	"encoding/json"
)

// CountryFetcher retrieves raw country documents from the upstream catalog.
// Payloads are opaque to this system; they are relayed to callers unparsed.
type CountryFetcher interface {
	All(ctx context.Context) (json.RawMessage, error)
	ByName(ctx context.Context, name string) (json.RawMessage, error)
	ByRegion(ctx context.Context, region string) (json.RawMessage, error)
	ByCode(ctx context.Context, code string) (json.RawMessage, error)
}

// CatalogCache stores fetched catalog payloads keyed by request shape.
type CatalogCache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, payload json.RawMessage) error
}

// CountryCatalog is the read-only country data boundary exposed to handlers.
type CountryCatalog interface {
	All(ctx context.Context) (json.RawMessage, error)
	ByName(ctx context.Context, name string) (json.RawMessage, error)
	ByRegion(ctx context.Context, region string) (json.RawMessage, error)
	ByCode(ctx context.Context, code string) (json.RawMessage, error)
}
