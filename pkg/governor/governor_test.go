package governor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGovernorBoundsConcurrency(t *testing.T) {
	g := New(2)
	var inFlight, maxSeen int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			defer g.Release()

			n := atomic.AddInt32(&inFlight, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxSeen); got > 2 {
		t.Errorf("observed %d concurrent holders, limit is 2", got)
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	g := New(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctx); err == nil {
		t.Fatal("expected context error while all slots are held")
	}

	g.Release()
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("slot not freed: %v", err)
	}
}
