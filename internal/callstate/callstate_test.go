package callstate

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestArenaRegisterLookupRelease(t *testing.T) {
	a := NewArena()

	handle, call := a.Register(KindGet)
	if call.Phase() != Create {
		t.Fatalf("new call phase = %v, want Create", call.Phase())
	}

	got, ok := a.Lookup(handle)
	if !ok || got != call {
		t.Fatalf("Lookup(%d) = (%v, %v), want (%v, true)", handle, got, ok, call)
	}

	a.Release(handle)
	if _, ok := a.Lookup(handle); ok {
		t.Fatalf("Lookup after Release still found the call")
	}
}

func TestCallAdvancesThroughPhases(t *testing.T) {
	a := NewArena()
	_, call := a.Register(KindPut)

	order := []Phase{Process, Finish, Cleanup}
	for _, p := range order {
		call.Advance(p)
		if call.Phase() != p {
			t.Fatalf("Phase() = %v, want %v", call.Phase(), p)
		}
	}
}

func TestCallWaitBlocksUntilWake(t *testing.T) {
	a := NewArena()
	_, call := a.Register(KindPut)

	done := make(chan interface{}, 1)
	go func() { done <- call.Wait() }()

	select {
	case <-done:
		t.Fatalf("Wait returned before Wake was called")
	case <-time.After(50 * time.Millisecond):
	}

	call.SetResult(42)
	call.Wake()

	select {
	case got := <-done:
		if got != 42 {
			t.Fatalf("Wait() = %v, want 42", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Wait never returned after Wake")
	}
}

func TestWorkerPoolDispatchesEveryPushedHandle(t *testing.T) {
	pool := NewWorkerPool(2, 8)

	var processed int64
	var registered int64
	pool.Run(2, func() { atomic.AddInt64(&registered, 1) }, func(handle uint64) {
		atomic.AddInt64(&processed, 1)
	})

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		q := pool.Queues()[i%len(pool.Queues())]
		go func(q *CompletionQueue, h uint64) {
			defer wg.Done()
			q.Push(h)
		}(q, uint64(i))
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&processed) < n && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	pool.Shutdown()

	if got := atomic.LoadInt64(&processed); got != n {
		t.Fatalf("processed %d handles, want %d", got, n)
	}
	if got := atomic.LoadInt64(&registered); got != 4 {
		t.Fatalf("registered %d workers, want 4 (2 queues x 2 threads)", got)
	}
}
