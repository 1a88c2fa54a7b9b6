package cache

import (
	"encoding/hex"
	"io"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/machenxing/bionic/core/bionic"
)

// RenderCache caches rendered markup so repeated renders of the same
// document at the same ratio (slider scrubbing, reconnecting preview
// clients) skip the transform. Keys are derived from a BLAKE3 digest, so the
// cache never holds a second copy of the source text.
type RenderCache struct {
	cache Cache[string, string]
}

// NewRenderCache creates a render cache with the given configuration.
func NewRenderCache(config Config) *RenderCache {
	return &RenderCache{
		cache: NewLRUCache[string, string](config),
	}
}

// NewDefaultRenderCache creates a render cache sized for interactive use.
func NewDefaultRenderCache() *RenderCache {
	config := DefaultConfig()
	config.MaxSize = 64 // rendered documents can be large, keep fewer
	return NewRenderCache(config)
}

// Key derives the cache key for a (text, ratio, convention) triple.
// The convention label distinguishes markup styles ("html", "ansi", ...)
// that render the same text differently.
func Key(text string, ratio float64, convention string) string {
	h := blake3.New()
	io.WriteString(h, convention)
	io.WriteString(h, "\x00")
	io.WriteString(h, strconv.FormatFloat(ratio, 'g', -1, 64))
	io.WriteString(h, "\x00")
	io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

// Render returns the cached markup for the triple, rendering and storing it
// on a miss. The convention label must uniquely identify m.
func (c *RenderCache) Render(text string, ratio float64, m bionic.Markup, convention string) string {
	key := Key(text, ratio, convention)
	if markup, ok := c.cache.Get(key); ok {
		return markup
	}
	markup := bionic.Transform(text, ratio, m)
	c.cache.Put(key, markup)
	return markup
}

// Clear removes all cached renders.
func (c *RenderCache) Clear() {
	c.cache.Clear()
}

// Len returns the number of cached renders.
func (c *RenderCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics.
func (c *RenderCache) Stats() Stats {
	return c.cache.Stats()
}
