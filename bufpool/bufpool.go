// Package bufpool implements the tiered buffer pool spec.md §4.6 requires
// for the zlib subsystem: 4/16/64/256 KiB tiers, capacity 8 each, to reduce
// allocation churn across the worker-thread pool and the loop goroutine.
package bufpool

import (
	"sync"

	"jsrtgo/size"
)

// Tier capacity, one per bucket, mirroring spec.md §4.6's Pools section.
const perTierCapacity = 8

var tierSizes = []size.Size{4 * size.KiB, 16 * size.KiB, 64 * size.KiB, 256 * size.KiB}

// Pool hands out byte slices sized to the smallest tier that fits a
// requested length, and accepts them back for reuse. Safe for concurrent use
// from both the loop goroutine and worker-pool goroutines (spec.md §5: "the
// zlib context pool and buffer pools are shared across threads and guarded
// by mutexes").
type Pool struct {
	tiers []*tier
}

type tier struct {
	size size.Size
	mu   sync.Mutex
	free [][]byte
}

// New constructs a Pool with the spec-mandated tier sizes and capacities.
func New() *Pool {
	p := &Pool{tiers: make([]*tier, len(tierSizes))}
	for i, s := range tierSizes {
		p.tiers[i] = &tier{size: s}
	}
	return p
}

// Get returns a []byte with length n, drawn from the smallest tier whose
// size is >= n if one is free, else a freshly allocated slice (never pooled
// back if it doesn't match a tier size exactly).
func (p *Pool) Get(n int) []byte {
	for _, t := range p.tiers {
		if t.size.Int() >= n {
			if b := t.take(); b != nil {
				return b[:n]
			}
			return make([]byte, n, t.size.Int())
		}
	}
	return make([]byte, n)
}

// Put returns b to its tier pool if its capacity matches a tier exactly and
// the tier has spare room; otherwise b is dropped for the GC to collect.
func (p *Pool) Put(b []byte) {
	c := cap(b)
	for _, t := range p.tiers {
		if t.size.Int() == c {
			t.give(b[:0:c])
			return
		}
	}
}

func (t *tier) take() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.free)
	if n == 0 {
		return nil
	}
	b := t.free[n-1]
	t.free = t.free[:n-1]
	return b
}

func (t *tier) give(b []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.free) >= perTierCapacity {
		return
	}
	t.free = append(t.free, b)
}
