package ingest

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// dedupe remembers the ids of events that were already published so
// redelivered messages are not counted twice. Events without an id are never
// deduplicated.
type dedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[uint64, struct{}]
}

func newDedupe(size int) *dedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[uint64, struct{}](size)
	return &dedupe{lru: c}
}

func (d *dedupe) seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lru.Contains(xxhash.Sum64String(id))
}

func (d *dedupe) remember(ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			d.lru.Add(xxhash.Sum64String(id), struct{}{})
		}
	}
}
