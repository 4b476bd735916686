package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/core/ports"
	"github.com/huygym/membership-system/internal/pkg/metrics"
	"github.com/huygym/membership-system/pkg/logger"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

var (
	// ErrQueueFull is returned by Record when the target worker has no room left.
	ErrQueueFull = errors.New("activity queue full")
	// ErrStopped is returned by Record after Stop.
	ErrStopped = errors.New("activity dispatcher stopped")
)

type activityJob struct {
	eventType string
	metadata  map[string]string
}

// Dispatcher delivers activity records to a sink on a fixed set of workers.
// Records are sharded by the "user" metadata value, so one operator's
// activity reaches the sink in order.
type Dispatcher struct {
	workers []chan activityJob
	sink    ports.ActivityRecorder
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ ports.ActivityRecorder = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.ActivityRecorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan activityJob, numWorkers),
		sink:    sink,
		log:     logger.Component(log, "activity_dispatcher"),
	}
	for i := range d.workers {
		d.workers[i] = make(chan activityJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled or
// after Stop has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues an activity record without blocking. It implements
// ports.ActivityRecorder.
func (d *Dispatcher) Record(_ context.Context, eventType string, metadata map[string]string) error {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	idx := d.shardIndex(meta["user"])
	select {
	case d.workers[idx] <- activityJob{eventType: eventType, metadata: meta}:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the worker channels and waits for queued records to be delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// shardIndex maps a user name deterministically to a worker index.
func (d *Dispatcher) shardIndex(user string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(user))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan activityJob) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.ActivityQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.sink.Record(ctx, job.eventType, job.metadata); err != nil {
				metrics.ActivityErrorsTotal.Inc()
				d.log.Error().Err(err).
					Str("event_type", job.eventType).
					Str("user", job.metadata["user"]).
					Int("worker_id", id).
					Msg("activity delivery failed")
			}
		}
	}
}
