// game/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/stathat/consistent"
)

var (
	// ErrDispatcherStopped is returned by Submit once Stop has been called.
	ErrDispatcherStopped = errors.New("dispatcher stopped")
	// ErrLaneFull is returned by TrySubmit when the key's lane has no room.
	ErrLaneFull = errors.New("dispatcher lane full")
)

// Dispatcher runs submitted tasks on a fixed set of worker lanes. Every key is
// pinned to one lane through a consistent hash ring, so tasks sharing a key
// run one at a time in submission order while different keys spread across
// lanes and run in parallel.
type Dispatcher struct {
	ring  *consistent.Consistent
	lanes map[string]chan func()
	log   *slog.Logger

	stop sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// New starts a dispatcher with the given number of lanes, each queueing up to
// depth tasks.
func New(lanes, depth int, logger *slog.Logger) *Dispatcher {
	if lanes < 1 {
		lanes = 1
	}
	d := &Dispatcher{
		ring:  consistent.New(),
		lanes: make(map[string]chan func(), lanes),
		log:   logger.With(slog.String("component", "dispatcher")),
		done:  make(chan struct{}),
	}
	for i := 0; i < lanes; i++ {
		name := "lane-" + strconv.Itoa(i)
		q := make(chan func(), depth)
		d.ring.Add(name)
		d.lanes[name] = q

		d.wg.Add(1)
		go d.work(name, q)
	}
	d.log.Info("dispatcher started", slog.Int("lanes", lanes), slog.Int("depth", depth))
	return d
}

// Lane names the lane that serves key.
func (d *Dispatcher) Lane(key string) (string, error) {
	return d.ring.Get(key)
}

// Submit queues task on key's lane. It blocks while the lane is full, until
// ctx ends or the dispatcher stops. Tasks racing a concurrent Stop may be
// dropped.
func (d *Dispatcher) Submit(ctx context.Context, key string, task func()) error {
	q, err := d.route(key)
	if err != nil {
		return err
	}
	select {
	case q <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrDispatcherStopped
	}
}

// TrySubmit queues task on key's lane without waiting. It returns ErrLaneFull
// when the lane is full.
func (d *Dispatcher) TrySubmit(key string, task func()) error {
	q, err := d.route(key)
	if err != nil {
		return err
	}
	select {
	case q <- task:
		return nil
	default:
		return ErrLaneFull
	}
}

func (d *Dispatcher) route(key string) (chan func(), error) {
	select {
	case <-d.done:
		return nil, ErrDispatcherStopped
	default:
	}
	lane, err := d.ring.Get(key)
	if err != nil {
		return nil, fmt.Errorf("routing %q: %w", key, err)
	}
	return d.lanes[lane], nil
}

// Stop refuses new tasks, lets every lane finish what it has queued and waits
// for the workers to exit.
func (d *Dispatcher) Stop() {
	d.stop.Do(func() {
		close(d.done)
		d.wg.Wait()
		d.log.Info("dispatcher stopped")
	})
	d.wg.Wait()
}

func (d *Dispatcher) work(name string, q chan func()) {
	defer d.wg.Done()
	for {
		select {
		case task := <-q:
			d.run(name, task)
		case <-d.done:
			for {
				select {
				case task := <-q:
					d.run(name, task)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) run(lane string, task func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("task panicked", slog.String("lane", lane), slog.Any("panic", r))
		}
	}()
	task()
}
