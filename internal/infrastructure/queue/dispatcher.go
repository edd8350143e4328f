package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher delivers fire-and-forget profile records to the backend
// directory from a fixed set of workers, sharded by email so records for
// the same account stay ordered. A failed delivery is logged and dropped;
// it never rolls back the identity that triggered it.
type Dispatcher struct {
	workers   []chan domain.ProfileRecord
	directory ports.ProfileDirectory
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, directory ports.ProfileDirectory, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.ProfileRecord, numWorkers),
		directory: directory,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ProfileRecord, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues one profile record. It satisfies service.ProfileRecorder
// and never blocks the registration path beyond the channel buffer.
func (d *Dispatcher) Record(rec domain.ProfileRecord) {
	d.workers[d.shardIndex(rec.Email)] <- rec
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ProfileRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-ch:
			if !ok {
				return
			}
			if err := d.directory.CreateProfile(ctx, rec); err != nil {
				d.log.Error().Err(err).
					Str("email", rec.Email).
					Int("worker_id", id).
					Msg("profile record delivery failed")
			}
		}
	}
}
