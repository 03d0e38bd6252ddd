// Package newscache implements NewsCache (C3): a per-symbol,
// TTL-evicted read-through cache over an external news provider, backed
// by go-zero's in-process TTL+LRU collection.Cache the way
// internal/cache/keys.go conventions suggest for other read-through
// layers in this tree.
package newscache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultTTL matches spec.md's 6h news item TTL.
const DefaultTTL = 6 * time.Hour

// Item is one cached news item for a symbol.
type Item struct {
	Title       string
	Source      string
	URL         string
	Summary     string
	PublishedAt time.Time
}

// Provider is the external news collaborator (out of scope per spec.md
// §1; this package only defines the interface it reads through to).
type Provider interface {
	FetchNews(ctx context.Context, symbol string) ([]Item, error)
}

type entry struct {
	items     []Item
	fetchedAt time.Time
}

// Cache is the read-through news cache. Zero value is not usable;
// construct with New.
type Cache struct {
	provider Provider
	ttl      time.Duration
	store    *collection.Cache
}

// New constructs a Cache backed by provider, with TTL (<=0 uses
// DefaultTTL).
func New(provider Provider, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	store, err := collection.NewCache(ttl)
	if err != nil {
		return nil, fmt.Errorf("newscache: construct backing cache: %w", err)
	}
	return &Cache{provider: provider, ttl: ttl, store: store}, nil
}

// GetCachedNews returns cached items for each symbol whose age is under
// TTL; missing or expired entries trigger exactly one read-through per
// symbol, then are cached. Provider failures are non-fatal: that
// symbol's result is simply an empty item list.
func (c *Cache) GetCachedNews(ctx context.Context, symbols []string) map[string][]Item {
	out := make(map[string][]Item, len(symbols))
	for _, sym := range symbols {
		out[sym] = c.getOne(ctx, sym)
	}
	return out
}

func (c *Cache) getOne(ctx context.Context, symbol string) []Item {
	raw, err := c.store.Take(symbol, func() (any, error) {
		items, err := c.provider.FetchNews(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return entry{items: items, fetchedAt: time.Now()}, nil
	})
	if err != nil {
		logx.WithContext(ctx).Errorf("newscache: read-through failed for %s: %v", symbol, err)
		return nil
	}
	e, ok := raw.(entry)
	if !ok {
		return nil
	}
	return e.items
}

// FormatNewsForPrompt renders a best-effort, agent-visible text block
// from the cached items across all given symbols.
func FormatNewsForPrompt(bySymbol map[string][]Item) string {
	if len(bySymbol) == 0 {
		return ""
	}
	var b strings.Builder
	for symbol, items := range bySymbol {
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "News for %s:\n", symbol)
		for _, it := range items {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", it.Source, it.Title, it.PublishedAt.Format("2006-01-02"))
		}
	}
	return b.String()
}
