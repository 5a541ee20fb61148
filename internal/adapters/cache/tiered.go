package cache

import (
	"context"

	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

// Tiered reads through a fast local cache in front of a shared one. Hits in
// the shared cache are copied into the local one.
type Tiered struct {
	local  ports.Cache
	shared ports.Cache
}

// NewTiered combines local and shared.
func NewTiered(local, shared ports.Cache) *Tiered {
	return &Tiered{local: local, shared: shared}
}

var _ ports.Cache = (*Tiered)(nil)

// Get implements ports.Cache.
func (c *Tiered) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok, err := c.local.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}
	v, ok, err := c.shared.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	return v, true, c.local.Set(ctx, key, v)
}

// Set implements ports.Cache.
func (c *Tiered) Set(ctx context.Context, key, value string) error {
	if err := c.local.Set(ctx, key, value); err != nil {
		return err
	}
	return c.shared.Set(ctx, key, value)
}
