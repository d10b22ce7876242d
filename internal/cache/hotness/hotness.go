// Package hotness keeps an exponentially decaying request score per cache key.
package hotness

import (
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	numShards = 64
	// scores below this are forgotten when a shard is over its limit
	coldScore = 0.05
)

type Tracker struct {
	HalfLife time.Duration

	now      func() time.Time
	shardCap int
	shards   [numShards]shard
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*counter
}

type counter struct {
	score float64
	last  time.Time
}

type Option func(*Tracker)

// WithClock replaces time.Now as the tracker's time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New returns a tracker whose scores halve every halfLife. maxKeys bounds the
// number of tracked keys loosely; cold keys are swept once a shard fills up.
func New(halfLife time.Duration, maxKeys int, opts ...Option) *Tracker {
	if halfLife <= 0 {
		halfLife = time.Minute
	}
	if maxKeys <= 0 {
		maxKeys = 1 << 16
	}
	t := &Tracker{HalfLife: halfLife, now: time.Now, shardCap: max(1, maxKeys/numShards)}
	for i := range t.shards {
		t.shards[i].m = make(map[string]*counter)
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Tracker) Inc(key string) {
	if key == "" {
		return
	}
	s := t.pick(key)
	n := t.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.m[key]
	if c == nil {
		if len(s.m) >= t.shardCap {
			t.sweep(s, n)
		}
		s.m[key] = &counter{score: 1, last: n}
		return
	}
	c.score = decay(c.score, n.Sub(c.last).Seconds(), t.HalfLife.Seconds()) + 1.0
	c.last = n
}

func (t *Tracker) Score(key string) float64 {
	if key == "" {
		return 0
	}
	s := t.pick(key)
	n := t.now()

	s.mu.RLock()
	c := s.m[key]
	if c == nil {
		s.mu.RUnlock()
		return 0
	}
	score, last := c.score, c.last
	s.mu.RUnlock()

	return decay(score, n.Sub(last).Seconds(), t.HalfLife.Seconds())
}

func (t *Tracker) Size() int {
	total := 0
	for i := range t.shards {
		t.shards[i].mu.RLock()
		total += len(t.shards[i].m)
		t.shards[i].mu.RUnlock()
	}
	return total
}

// sweep drops the cold keys of s. Caller holds s.mu.
func (t *Tracker) sweep(s *shard, n time.Time) {
	hl := t.HalfLife.Seconds()
	for k, c := range s.m {
		if decay(c.score, n.Sub(c.last).Seconds(), hl) < coldScore {
			delete(s.m, k)
		}
	}
}

func decay(score, dt, halfLife float64) float64 {
	if score == 0 || dt <= 0 || halfLife <= 0 {
		return score
	}
	lambda := math.Ln2 / halfLife
	return score * math.Exp(-lambda*dt)
}

func (t *Tracker) pick(key string) *shard {
	h := xxhash.Sum64String(key)
	return &t.shards[h&(numShards-1)]
}
