// Package cache holds computed accessor results in an in-process LRU backed
// by an optional shared Redis tier.
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/h3-frame/internal/cache/hotness"
	"github.com/mohammed-shakir/h3-frame/internal/observability"
)

// Store is the shared tier; *redisstore.Client satisfies it.
type Store interface {
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// admitSlack is the relative shortfall below the admission score still
// admitted. Requests arriving close together decay each other by a hair, so
// n back-to-back requests score just under n.
const admitSlack = 1e-3

type entry struct {
	val     []byte
	expires time.Time
	// shared is set once the value has been written to the remote tier
	shared bool
}

// Results is a two-tier result cache. Remote failures degrade to a miss and
// are logged; they never fail the request.
type Results struct {
	mu        sync.Mutex
	local     *lru.Cache[string, entry]
	remote    Store
	opTimeout time.Duration
	log       zerolog.Logger
	now       func() time.Time
	hot       *hotness.Tracker
	admit     float64
}

type Option func(*Results)

func WithRemote(s Store) Option { return func(r *Results) { r.remote = s } }

func WithOpTimeout(d time.Duration) Option { return func(r *Results) { r.opTimeout = d } }

func WithLogger(l zerolog.Logger) Option { return func(r *Results) { r.log = l } }

// WithAdmission writes a value to the remote tier only once the decayed
// request score of its key reaches minScore. Until then it lives in the LRU
// alone, and a later LRU hit that crosses the threshold shares it.
func WithAdmission(t *hotness.Tracker, minScore float64) Option {
	return func(r *Results) { r.hot, r.admit = t, minScore }
}

func New(size int, opts ...Option) *Results {
	if size <= 0 {
		size = 1024
	}
	c, _ := lru.New[string, entry](size)
	r := &Results{
		local:     c,
		opTimeout: 250 * time.Millisecond,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Get returns the cached value for key and the tier that answered ("lru" or
// "redis"). A redis hit is promoted into the LRU with the given ttl.
func (r *Results) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, string, bool) {
	if r.hot != nil {
		r.hot.Inc(key)
	}
	r.mu.Lock()
	e, ok := r.local.Get(key)
	if ok && !e.expires.IsZero() && r.now().After(e.expires) {
		r.local.Remove(key)
		ok = false
	}
	r.mu.Unlock()
	if ok {
		observability.IncCacheHit("lru")
		if !e.shared && r.admitted(key) {
			r.share(ctx, key, e)
		}
		return e.val, "lru", true
	}
	observability.IncCacheMiss("lru")

	if r.remote == nil {
		return nil, "", false
	}
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	got, err := r.remote.MGet(ctx, []string{key})
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("remote cache get failed")
		return nil, "", false
	}
	v, ok := got[key]
	if !ok {
		return nil, "", false
	}
	r.putLocal(key, entry{val: v, shared: true}, ttl)
	return v, "redis", true
}

// Set stores val in the LRU and, when the key is admitted, in the remote tier.
func (r *Results) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	e := entry{val: val}
	if ttl > 0 {
		e.expires = r.now().Add(ttl)
	}
	if r.admitted(key) {
		e.shared = r.setRemote(ctx, key, val, ttl)
	}
	r.putLocal(key, e, 0)
}

func (r *Results) admitted(key string) bool {
	if r.remote == nil {
		return false
	}
	return r.hot == nil || r.hot.Score(key) >= r.admit*(1-admitSlack)
}

// share copies an LRU entry to the remote tier with its remaining lifetime.
func (r *Results) share(ctx context.Context, key string, e entry) {
	var ttl time.Duration
	if !e.expires.IsZero() {
		if ttl = e.expires.Sub(r.now()); ttl <= 0 {
			return
		}
	}
	if !r.setRemote(ctx, key, e.val, ttl) {
		return
	}
	e.shared = true
	r.mu.Lock()
	if _, ok := r.local.Peek(key); ok {
		r.local.Add(key, e)
	}
	r.mu.Unlock()
}

func (r *Results) setRemote(ctx context.Context, key string, val []byte, ttl time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	if err := r.remote.Set(ctx, key, val, ttl); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("remote cache set failed")
		return false
	}
	return true
}

// Len is the number of entries in the local tier.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local.Len()
}

// putLocal stores e, stamping its expiry from ttl when ttl is positive.
func (r *Results) putLocal(key string, e entry, ttl time.Duration) {
	if ttl > 0 {
		e.expires = r.now().Add(ttl)
	}
	r.mu.Lock()
	r.local.Add(key, e)
	r.mu.Unlock()
}
