package utils

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// SpinMutex owns a value of type T and grants exclusive access to it through a SpinGuard.
//
// Acquiring the lock busy-waits: there is no blocking primitive underneath the heap, so
// a contended Lock burns CPU until the holder releases. Critical sections guarded by a
// SpinMutex must therefore stay short. The mutex is not reentrant; calling Lock while
// already holding the guard on the same call path spins forever.
type SpinMutex[T any] struct {
	locked atomic.Bool
	value  T
}

// SpinGuard grants exclusive access to the value owned by a SpinMutex until Unlock is called
type SpinGuard[T any] struct {
	mutex *SpinMutex[T]
}

// NewSpinMutex creates an unlocked SpinMutex owning value
func NewSpinMutex[T any](value T) *SpinMutex[T] {
	return &SpinMutex[T]{value: value}
}

// Lock spins until the mutex is acquired and returns the guard for it
func (m *SpinMutex[T]) Lock() SpinGuard[T] {
	for {
		guard, ok := m.TryLock()
		if ok {
			return guard
		}

		// Wait for the flag to look free before trying the CAS again, so that waiters
		// don't keep bouncing the cache line with failed writes
		for m.locked.Load() {
		}
	}
}

// TryLock acquires the mutex if it is free. It never spins; if the mutex is held, the
// returned bool is false and the guard must not be used.
func (m *SpinMutex[T]) TryLock() (SpinGuard[T], bool) {
	if m.locked.CompareAndSwap(false, true) {
		return SpinGuard[T]{mutex: m}, true
	}

	return SpinGuard[T]{}, false
}

// With runs fn while holding the mutex. The mutex is released when fn returns, including
// when fn panics.
func (m *SpinMutex[T]) With(fn func(value *T)) {
	guard := m.Lock()
	defer guard.Unlock()

	fn(guard.Value())
}

// Value returns the value owned by the mutex. The pointer must not be retained past Unlock.
func (g SpinGuard[T]) Value() *T {
	if g.mutex == nil {
		panic("attempted to access the value of an empty spin guard")
	}

	return &g.mutex.value
}

// Unlock releases the mutex
func (g SpinGuard[T]) Unlock() {
	if g.mutex == nil {
		panic("attempted to unlock an empty spin guard")
	}

	if !g.mutex.locked.CompareAndSwap(true, false) {
		panic(errors.New("attempted to unlock a spin mutex that was not locked"))
	}
}
