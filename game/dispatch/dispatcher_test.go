package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/logging"
)

func TestSubmitKeepsPerKeyOrder(t *testing.T) {
	d := New(4, 16, logging.Discard())
	defer d.Stop()

	const keys, perKey = 8, 200
	var (
		mu   sync.Mutex
		seen = make(map[string][]int)
		wg   sync.WaitGroup
	)
	for k := 0; k < keys; k++ {
		key := fmt.Sprintf("conn-%d", k)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perKey; i++ {
				if err := d.Submit(context.Background(), key, func() {
					mu.Lock()
					seen[key] = append(seen[key], i)
					mu.Unlock()
				}); err != nil {
					t.Errorf("Submit(%s) error = %v", key, err)
					return
				}
			}
		}()
	}
	wg.Wait()
	d.Stop()

	for key, got := range seen {
		if len(got) != perKey {
			t.Fatalf("%s ran %d tasks, want %d", key, len(got), perKey)
		}
		for i, v := range got {
			if v != i {
				t.Fatalf("%s ran task %d at position %d", key, v, i)
			}
		}
	}
}

func TestSubmitSerializesOneKey(t *testing.T) {
	d := New(4, 16, logging.Discard())
	defer d.Stop()

	var running, overlaps atomic.Int32
	for i := 0; i < 50; i++ {
		if err := d.Submit(context.Background(), "same", func() {
			if running.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(100 * time.Microsecond)
			running.Add(-1)
		}); err != nil {
			t.Fatal(err)
		}
	}
	d.Stop()
	if overlaps.Load() != 0 {
		t.Errorf("tasks for one key overlapped %d times", overlaps.Load())
	}
}

func TestLanesRunInParallel(t *testing.T) {
	d := New(8, 1, logging.Discard())
	defer d.Stop()

	// Find two keys on different lanes.
	first, _ := d.Lane("a")
	other := ""
	for i := 0; i < 100 && other == ""; i++ {
		key := fmt.Sprintf("k%d", i)
		if lane, _ := d.Lane(key); lane != first {
			other = key
		}
	}
	if other == "" {
		t.Fatal("all keys hash to one lane")
	}

	release := make(chan struct{})
	if err := d.Submit(context.Background(), "a", func() { <-release }); err != nil {
		t.Fatal(err)
	}
	ran := make(chan struct{})
	if err := d.Submit(context.Background(), other, func() { close(ran) }); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("a blocked lane stalled another lane")
	}
	close(release)
}

func TestPanicDoesNotKillLane(t *testing.T) {
	d := New(1, 4, logging.Discard())
	defer d.Stop()

	if err := d.Submit(context.Background(), "x", func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}
	ran := make(chan struct{})
	if err := d.Submit(context.Background(), "x", func() { close(ran) }); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("lane died after a panic")
	}
}

func TestSubmitAfterStop(t *testing.T) {
	d := New(2, 1, logging.Discard())
	d.Stop()
	d.Stop()
	if err := d.Submit(context.Background(), "x", func() {}); !errors.Is(err, ErrDispatcherStopped) {
		t.Errorf("Submit after Stop error = %v", err)
	}
}

func TestSubmitHonoursContext(t *testing.T) {
	d := New(1, 0, logging.Discard())
	defer d.Stop()

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	if err := d.Submit(context.Background(), "x", func() { close(started); <-release }); err != nil {
		t.Fatal(err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Submit(ctx, "x", func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit on a busy lane error = %v", err)
	}
}

func TestTrySubmitReportsFullLane(t *testing.T) {
	d := New(1, 1, logging.Discard())

	release := make(chan struct{})
	started := make(chan struct{})
	if err := d.TrySubmit("x", func() { close(started); <-release }); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := d.TrySubmit("x", func() {}); err != nil {
		t.Fatalf("TrySubmit into free slot error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- d.TrySubmit("y", func() {}) }()
	select {
	case err := <-done:
		if !errors.Is(err, ErrLaneFull) {
			t.Errorf("TrySubmit on a full lane error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("TrySubmit blocked on a full lane")
	}

	close(release)
	d.Stop()
	if err := d.TrySubmit("x", func() {}); !errors.Is(err, ErrDispatcherStopped) {
		t.Errorf("TrySubmit after Stop error = %v", err)
	}
}
