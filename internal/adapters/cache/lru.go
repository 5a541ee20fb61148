package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

// DefaultLRUSize is the entry count of an LRU created with size 0.
const DefaultLRUSize = 10000

// LRU is a fixed-size in-process cache. It is safe for concurrent use.
type LRU struct {
	entries *lru.Cache[string, string]
}

// NewLRU creates an LRU holding at most size entries.
func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &LRU{entries: entries}, nil
}

var _ ports.Cache = (*LRU)(nil)

// Get implements ports.Cache.
func (c *LRU) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.entries.Get(key)
	return v, ok, nil
}

// Set implements ports.Cache.
func (c *LRU) Set(_ context.Context, key, value string) error {
	c.entries.Add(key, value)
	return nil
}

// Len returns the number of cached entries.
func (c *LRU) Len() int { return c.entries.Len() }
