package state

import "sync"

// keyedLocker hands out one mutex per thread key so same-thread deliveries
// serialize while distinct threads run fully in parallel. Mutexes are never
// reclaimed; thread cardinality is bounded by campaign size and state is
// process-lifetime anyway.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocker) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
