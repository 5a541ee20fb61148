package ports

import "context"

// Cache stores normalized results keyed by request.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
