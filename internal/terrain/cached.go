package terrain

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"tilestream/internal/tile"
)

// Cached memoizes the grids produced by another source. The cache is allowed
// to drop entries, in which case the wrapped source is asked again.
type Cached struct {
	src   Source
	cache *ristretto.Cache[uint64, *tile.Grid]
}

// NewCached wraps src with a cache holding up to maxBytes of tile data.
func NewCached(src Source, maxBytes int64) (*Cached, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("terrain cache: max bytes must be positive, got %d", maxBytes)
	}
	// ristretto wants ~10 counters per expected entry; 256 bytes is a 16x16 chunk.
	counters := max(maxBytes/256*10, 1000)
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, *tile.Grid]{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("terrain cache: %w", err)
	}
	return &Cached{src: src, cache: cache}, nil
}

func (c *Cached) Fill(cx, cy int, g *tile.Grid) {
	key := coordKey(cx, cy)
	if hit, ok := c.cache.Get(key); ok && g.CopyFrom(hit) == nil {
		return
	}
	c.src.Fill(cx, cy, g)
	c.cache.Set(key, g.Clone(), int64(len(g.Types)))
}

// Wait blocks until pending cache writes are applied.
func (c *Cached) Wait() {
	c.cache.Wait()
}

func (c *Cached) Close() error {
	c.cache.Close()
	return nil
}
