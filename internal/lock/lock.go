// Package lock provides exclusive, non-blocking locks keyed by name. The index
// uses them so only one rebuild runs per data root.
package lock

import "context"

// Locker acquires a named lock without waiting. TryLock returns domain.ErrLocked
// when another holder owns key; the returned func releases it.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}
