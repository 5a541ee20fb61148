// Package cache provides ports.Cache implementations for normalization
// results: an in-process LRU, a Redis store and a tiered combination.
package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// KeyPrefix starts every cache key.
const KeyPrefix = "tn:"

// Key returns the cache key of one request. op separates results of
// different operations over the same text.
func Key(op, lang, casing, text string) string {
	h := xxhash.New()
	_, _ = h.WriteString(text)
	return KeyPrefix + op + ":" + lang + ":" + casing + ":" + strconv.FormatUint(h.Sum64(), 16)
}
