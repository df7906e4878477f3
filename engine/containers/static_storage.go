package containers

import (
	"runtime"
	"sync/atomic"
)

// StaticStorage holds a single value of type T inside reserved storage that is
// constructed lazily, at most once, and shared across goroutines without locks.
// Readers observe either a fully constructed value or nothing; a partially
// constructed value is never visible because the storage pointer is published
// atomically only after the initializer has returned.
//
// The initializer must be fast and must not block: goroutines that lose the
// construction race spin (yielding the processor) until the value is published.
// There is no timeout and no cancellation.
type StaticStorage[T any] struct {
	object   atomic.Pointer[T]
	guard    atomic.Bool
	storage  T
	init     func() T
	finalize func(*T)
}

// NewStaticStorage reserves storage whose value is produced by init on first
// access. Destroy leaves the stored value untouched.
func NewStaticStorage[T any](init func() T) *StaticStorage[T] {
	return &StaticStorage[T]{init: init}
}

// NewStaticStorageWithFinalizer reserves storage whose value is produced by
// init on first access and torn down by finalize when Destroy wins.
func NewStaticStorageWithFinalizer[T any](init func() T, finalize func(*T)) *StaticStorage[T] {
	return &StaticStorage[T]{init: init, finalize: finalize}
}

// Get returns the stored value, constructing it on first use. Exactly one
// caller runs the initializer; every other caller spins until the value has
// been published. Calling Get on destroyed storage spins forever, so anything
// that might outlive the storage should use TryGet instead.
func (ss *StaticStorage[T]) Get() *T {
	if obj := ss.object.Load(); obj == &ss.storage {
		return obj
	}
	if ss.guard.CompareAndSwap(false, true) {
		ss.storage = ss.init()
		ss.object.Store(&ss.storage)
		return &ss.storage
	}
	for {
		if obj := ss.object.Load(); obj == &ss.storage {
			return obj
		}
		runtime.Gosched()
	}
}

// TryGet returns the stored value without waiting. It returns nil while the
// value is unconstructed and after the storage has been destroyed.
func (ss *StaticStorage[T]) TryGet() *T {
	return ss.object.Load()
}

// Destroy unpublishes the stored value. Only the caller that wins the swap
// runs the finalizer; every other caller gets false and must not touch the
// value. Destroying unconstructed storage also returns false.
func (ss *StaticStorage[T]) Destroy() bool {
	if ss.object.CompareAndSwap(&ss.storage, nil) {
		if ss.finalize != nil {
			ss.finalize(&ss.storage)
		}
		return true
	}
	return false
}
