package back

import (
	"context"
	"sync"
	"time"

	"foosrank/internal/util"
)

// playerLocks serializes rating updates: at most one in-flight submission
// may hold a given player at any time. Locks are acquired in sorted ID
// order so two submissions sharing players cannot deadlock, and every
// acquisition is bounded so contention surfaces as a retryable error
// instead of a pile-up.
type playerLocks struct {
	mu    sync.Mutex
	slots map[util.UUIDAsBlob]chan struct{}
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{
		slots: make(map[util.UUIDAsBlob]chan struct{}),
	}
}

func (l *playerLocks) slot(id util.UUIDAsBlob) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[id]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[id] = slot
	}

	return slot
}

// acquire takes every given lock and returns the function releasing them
// all. The ids slice is sorted in place.
func (l *playerLocks) acquire(
	ctx context.Context,
	ids []util.UUIDAsBlob,
	timeout time.Duration,
) (release func(), _ error) {
	util.SortUUIDAsBlob(ids)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	acquired := make([]chan struct{}, 0, len(ids))
	release = func() {
		for _, slot := range acquired {
			<-slot
		}
	}

	for _, id := range ids {
		slot := l.slot(id)

		select {
		case slot <- struct{}{}:
			acquired = append(acquired, slot)
		case <-deadline.C:
			release()
			return nil, ErrContention("players are busy with another submission, retry later")
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}

	return release, nil
}

// isHeld tells whether a submission currently holds the player, it is
// inherently racy and only good for politely refusing an operation that
// would conflict.
func (l *playerLocks) isHeld(id util.UUIDAsBlob) bool {
	l.mu.Lock()
	slot, ok := l.slots[id]
	l.mu.Unlock()

	return ok && len(slot) > 0
}
