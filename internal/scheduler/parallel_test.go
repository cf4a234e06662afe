package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestPassesNeverOverlap fires RunNow from many goroutines while the ticker is
// also running and checks that no two passes were ever in flight together.
func TestPassesNeverOverlap(t *testing.T) {
	r := &mockRunner{delay: 5 * time.Millisecond}
	sch := New(r, &Config{Interval: 2 * time.Millisecond}, nil)

	sch.Start()
	defer sch.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sch.RunNow(context.Background())
		}()
	}
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlap {
		t.Error("Two passes ran at the same time")
	}
	if r.calls < 10 {
		t.Errorf("Expected at least 10 passes, got %d", r.calls)
	}
}
