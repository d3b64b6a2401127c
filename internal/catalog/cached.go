package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/jcmexdev/profitus-pos/internal/pkg/cache"
)

// Cached is a read-through cache over an Accessor, meant for the
// search-as-you-type path. Cached stock is advisory only, since checkout
// re-validates against authoritative stock inside its own transaction,
// so a short TTL is safe. Cache failures degrade to the inner accessor.
type Cached struct {
	inner Accessor
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps inner with the given cache. A nil cache returns inner
// unchanged so callers can wire Redis optionally.
func NewCached(inner Accessor, c cache.Cache, ttl time.Duration) Accessor {
	if c == nil {
		return inner
	}
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

func (c *Cached) FindByID(ctx context.Context, id int64) (Product, error) {
	key := c.cache.GenerateKey("product_id", strconv.FormatInt(id, 10))
	var p Product
	if c.lookup(ctx, key, &p) {
		return p, nil
	}
	p, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	c.store(ctx, key, p)
	return p, nil
}

func (c *Cached) FindByCode(ctx context.Context, code string) (Product, error) {
	key := c.cache.GenerateKey("product_code", code)
	var p Product
	if c.lookup(ctx, key, &p) {
		return p, nil
	}
	p, err := c.inner.FindByCode(ctx, code)
	if err != nil {
		return Product{}, err
	}
	c.store(ctx, key, p)
	return p, nil
}

func (c *Cached) Search(ctx context.Context, term string) ([]Product, error) {
	key := c.cache.GenerateKey("search", term)
	var out []Product
	if c.lookup(ctx, key, &out) {
		return out, nil
	}
	out, err := c.inner.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Cached) lookup(ctx context.Context, key string, dest any) bool {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
		return false
	}
	if raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
		slog.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}
