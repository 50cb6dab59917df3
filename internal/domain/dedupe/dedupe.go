// Package dedupe tracks which (posting, candidate) pairs were already notified.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 500000

// Ledger records notified pairs so a recompute does not notify twice.
type Ledger interface {
	// SeenAndRecord atomically checks whether the pair was notified and
	// records it if not. Returns true if it was already recorded.
	SeenAndRecord(ctx context.Context, postingID, candidateID string) bool

	// Forget removes a pair, allowing it to be notified again. Used when the
	// notification could not be stored.
	Forget(ctx context.Context, postingID, candidateID string)

	Size() int
}

type pairKey struct {
	posting   string
	candidate string
}

// inMemoryLedger is a bounded set with oldest-first eviction.
// maxSize <= 0 means unbounded.
type inMemoryLedger struct {
	mu      sync.Mutex
	seen    map[pairKey]*list.Element
	order   *list.List // front = oldest
	maxSize int
}

// NewInMemoryLedger creates a ledger with configuration options.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{
		maxSize: defaultMaxSize,
		seen:    make(map[pairKey]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *inMemoryLedger) SeenAndRecord(_ context.Context, postingID, candidateID string) bool {
	k := pairKey{posting: postingID, candidate: candidateID}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[k]; ok {
		return true
	}
	if l.maxSize > 0 && len(l.seen) >= l.maxSize {
		l.evictOldest()
	}
	l.seen[k] = l.order.PushBack(k)
	return false
}

func (l *inMemoryLedger) Forget(_ context.Context, postingID, candidateID string) {
	k := pairKey{posting: postingID, candidate: candidateID}

	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.seen[k]; ok {
		l.order.Remove(el)
		delete(l.seen, k)
	}
}

// evictOldest must be called with l.mu held.
func (l *inMemoryLedger) evictOldest() {
	front := l.order.Front()
	if front == nil {
		return
	}
	l.order.Remove(front)
	delete(l.seen, front.Value.(pairKey)) //nolint:forcetypeassert // list only holds pairKey
}

func (l *inMemoryLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
