// Package locks provides the per-key mutual exclusion discipline used by
// the durable stores: every read-check-write sequence on a given key runs
// behind an exclusive lock acquired before the read and released after
// the write.
package locks

import (
	"clipchat/errors"
	"fmt"
	"sync"
	"time"
)

// Keyed hands out one exclusive lock per string key. Acquisition waits at
// most the configured timeout and then fails with ErrContention instead
// of deadlocking. Slots are kept for the process lifetime; key cardinality
// is bounded by the number of identities and rooms the process touches.
type Keyed struct {
	mu      sync.Mutex
	slots   map[string]chan struct{}
	timeout time.Duration
}

func NewKeyed(timeout time.Duration) *Keyed {
	return &Keyed{
		slots:   make(map[string]chan struct{}),
		timeout: timeout,
	}
}

// Acquire takes the lock for key. On success it returns a release func
// which the caller must defer so the lock is freed on every exit path,
// error included.
func (k *Keyed) Acquire(key string) (func(), error) {
	k.mu.Lock()
	slot, ok := k.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		k.slots[key] = slot
	}
	k.mu.Unlock()

	timer := time.NewTimer(k.timeout)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: key %q after %s", errors.ErrContention, key, k.timeout)
	}
}
