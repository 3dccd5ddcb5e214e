package session

import (
	"sync"

	"github.com/google/uuid"
)

// leaseTracker counts open streams per session. A retired session accepts no new lease.
type leaseTracker struct {
	mu      sync.Mutex
	counts  map[uuid.UUID]int
	retired map[uuid.UUID]struct{}
}

func newLeaseTracker() *leaseTracker {
	return &leaseTracker{
		counts:  make(map[uuid.UUID]int),
		retired: make(map[uuid.UUID]struct{}),
	}
}

func (l *leaseTracker) acquire(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.retired[id]; ok {
		return false
	}
	l.counts[id]++
	return true
}

func (l *leaseTracker) release(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts[id] <= 1 {
		delete(l.counts, id)
		return
	}
	l.counts[id]--
}

// retire succeeds only when no lease is held, atomically with respect to acquire
func (l *leaseTracker) retire(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts[id] > 0 {
		return false
	}
	l.retired[id] = struct{}{}
	return true
}

// forget drops the retired marker once the session record itself refuses access
func (l *leaseTracker) forget(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.retired, id)
}

func (l *leaseTracker) held(id uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.counts[id]
}
