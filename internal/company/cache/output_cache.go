// Package cache stores complete HTTP responses in Redis and replays them for
// matching requests until they expire or their tag is evicted.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "outputcache:"

// Policy describes how responses of a route are cached.
type Policy struct {
	Duration time.Duration
	// VaryByQuery lists the query keys that take part in the cache key.
	// When empty, the whole query string does.
	VaryByQuery []string
	// VaryByHeader lists request headers that take part in the cache key.
	VaryByHeader []string
	NoStore      bool
	Tags         []string
}

type entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"storedAt"`
}

// OutputCache is a Redis backed response cache. A nil client disables caching.
type OutputCache struct {
	client redis.Cmdable
	logger *zap.Logger
}

func New(client redis.Cmdable, logger *zap.Logger) *OutputCache {
	return &OutputCache{
		client: client,
		logger: logger.Named("output_cache"),
	}
}

// Enabled reports whether responses are actually stored.
func (c *OutputCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Middleware serves cached responses for p and stores fresh ones. Only GET and
// HEAD requests without an Authorization header are considered, and only 200
// responses are stored.
func (c *OutputCache) Middleware(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !c.Enabled() || p.NoStore || !cacheable(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := cacheKey(r, p)
			if c.serve(w, r, key) {
				return
			}

			var body bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			if ww.Status() != http.StatusOK {
				return
			}
			c.store(r.Context(), key, p, entry{
				Status:   ww.Status(),
				Header:   storableHeader(w.Header()),
				Body:     body.Bytes(),
				StoredAt: time.Now().UTC(),
			})
		})
	}
}

// EvictByTag removes every stored response tagged with tag.
func (c *OutputCache) EvictByTag(ctx context.Context, tag string) error {
	if !c.Enabled() {
		return nil
	}
	tagKey := keyPrefix + "tag:" + tag
	keys, err := c.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read tag %s: %w", tag, err)
	}
	if err := c.client.Del(ctx, append(keys, tagKey)...).Err(); err != nil {
		return fmt.Errorf("failed to evict tag %s: %w", tag, err)
	}
	c.logger.Debug("Evicted cached responses", zap.String("tag", tag), zap.Int("count", len(keys)))
	return nil
}

func (c *OutputCache) serve(w http.ResponseWriter, r *http.Request, key string) bool {
	raw, err := c.client.Get(r.Context(), key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Output cache lookup failed", zap.Error(err), zap.String("key", key))
		}
		return false
	}

	var cached entry
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("Discarding corrupt cache entry", zap.Error(err), zap.String("key", key))
		return false
	}

	for name, values := range cached.Header {
		w.Header()[name] = values
	}
	w.Header().Set("Age", strconv.Itoa(int(time.Since(cached.StoredAt).Seconds())))
	w.WriteHeader(cached.Status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(cached.Body)
	}
	return true
}

func (c *OutputCache) store(ctx context.Context, key string, p Policy, e entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn("Failed to encode response for caching", zap.Error(err))
		return
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, p.Duration)
	for _, tag := range p.Tags {
		pipe.SAdd(ctx, keyPrefix+"tag:"+tag, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Failed to store response", zap.Error(err), zap.String("key", key))
	}
}

func cacheable(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return r.Header.Get("Authorization") == ""
}

func cacheKey(r *http.Request, p Policy) string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteString(r.Method)
	b.WriteString(":")
	b.WriteString(strings.ToLower(r.URL.Path))

	query := r.URL.Query()
	names := p.VaryByQuery
	if len(names) == 0 {
		names = make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		values := query[name]
		if len(values) == 0 {
			continue
		}
		b.WriteString("?")
		b.WriteString(url.QueryEscape(name))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(strings.Join(values, ",")))
	}
	for _, name := range p.VaryByHeader {
		b.WriteString("|")
		b.WriteString(strings.ToLower(name))
		b.WriteString("=")
		b.WriteString(r.Header.Get(name))
	}
	return b.String()
}

func storableHeader(h http.Header) http.Header {
	out := h.Clone()
	out.Del("Set-Cookie")
	out.Del("Age")
	for name := range out {
		if strings.HasPrefix(name, "Access-Control-") {
			delete(out, name)
		}
	}
	return out
}
