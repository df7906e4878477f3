package containers

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestStaticStorageConstructsOnce(t *testing.T) {
	var constructed atomic.Int32
	ss := NewStaticStorage(func() int {
		constructed.Add(1)
		return 42
	})

	const goroutines = 64
	var wg sync.WaitGroup
	results := make([]*int, goroutines)
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = ss.Get()
		}(i)
	}
	wg.Wait()

	if got := constructed.Load(); got != 1 {
		t.Fatalf("initializer ran %d times, want 1", got)
	}
	for i, p := range results {
		if p == nil {
			t.Fatalf("goroutine %d got nil from Get", i)
		}
		if p != results[0] {
			t.Errorf("goroutine %d got a different pointer", i)
		}
		if *p != 42 {
			t.Errorf("goroutine %d read %d, want 42", i, *p)
		}
	}
}

func TestStaticStorageReadersNeverSeePartialValue(t *testing.T) {
	type payload struct {
		A, B, C uint64
	}
	ss := NewStaticStorage(func() payload {
		return payload{A: 1, B: 2, C: 3}
	})

	const readers = 32
	var wg sync.WaitGroup
	wg.Add(readers + 1)
	start := make(chan struct{})
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 1000; j++ {
				p := ss.TryGet()
				if p == nil {
					continue
				}
				if p.A != 1 || p.B != 2 || p.C != 3 {
					t.Errorf("observed partial value %+v", *p)
					return
				}
			}
		}()
	}
	go func() {
		defer wg.Done()
		<-start
		ss.Get()
	}()
	close(start)
	wg.Wait()
}

func TestStaticStorageTryGetBeforeConstruction(t *testing.T) {
	ss := NewStaticStorage(func() string { return "ready" })
	if p := ss.TryGet(); p != nil {
		t.Fatalf("TryGet before construction = %q, want nil", *p)
	}
	if got := *ss.Get(); got != "ready" {
		t.Fatalf("Get = %q, want %q", got, "ready")
	}
	if p := ss.TryGet(); p == nil || *p != "ready" {
		t.Fatal("TryGet after construction should return the value")
	}
}

func TestStaticStorageDestroySingleWinner(t *testing.T) {
	var finalized atomic.Int32
	ss := NewStaticStorageWithFinalizer(
		func() int { return 7 },
		func(v *int) { finalized.Add(1) },
	)
	ss.Get()

	const goroutines = 32
	var wg sync.WaitGroup
	var winners atomic.Int32
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if ss.Destroy() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Fatalf("%d goroutines won Destroy, want 1", got)
	}
	if got := finalized.Load(); got != 1 {
		t.Fatalf("finalizer ran %d times, want 1", got)
	}
	if p := ss.TryGet(); p != nil {
		t.Errorf("TryGet after Destroy = %v, want nil", *p)
	}
}

func TestStaticStorageDestroyBeforeConstruction(t *testing.T) {
	finalized := false
	ss := NewStaticStorageWithFinalizer(
		func() int { return 1 },
		func(v *int) { finalized = true },
	)
	if ss.Destroy() {
		t.Fatal("Destroy on unconstructed storage should not win")
	}
	if finalized {
		t.Fatal("finalizer must not run for an unconstructed value")
	}
}

func TestStaticStorageDestroyWithoutFinalizer(t *testing.T) {
	ss := NewStaticStorage(func() int { return 9 })
	ss.Get()
	if !ss.Destroy() {
		t.Fatal("first Destroy should win")
	}
	if ss.Destroy() {
		t.Fatal("second Destroy should lose")
	}
}
