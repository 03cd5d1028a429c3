package scheduling

import (
	"context"
	"fmt"
)

// Locker hands out short-lived advisory locks keyed by name.
type Locker interface {
	// TryLock returns ok=false without error when the key is held elsewhere.
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

// NopLocker always grants the lock. The store's unique index still keeps the
// one-active-record invariant without it.
type NopLocker struct{}

func (NopLocker) TryLock(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}

func childLockKey(childID int) string {
	return fmt.Sprintf("kidcurate:carryover:child:%d", childID)
}
