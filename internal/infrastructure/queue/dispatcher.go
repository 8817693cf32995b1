package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
	"github.com/clipcoins/clipcoins-api/internal/pkg/metrics"
)

const (
	defaultWorkers  = 4
	channelBuffer   = 256
	deliveryTimeout = 5 * time.Second
)

// Dispatcher routes credential deliveries to a fixed set of workers using
// consistent hashing on the Telegram id, so deliveries to one account keep
// their issue order.
//
// Stop closes the worker channels and waits for every queued delivery to
// be handed to the notifier. It must be called after the last producer
// (the HTTP server) has shut down.
type Dispatcher struct {
	workers  []chan domain.CredentialDelivery
	notifier ports.CredentialNotifier
	log      zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.CredentialNotifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.CredentialDelivery, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.CredentialDelivery, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Cancelling ctx aborts the workers
// without draining; use Stop for an orderly shutdown.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop rejects further deliveries, lets the workers empty their buffers
// and blocks until they have returned. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Enqueue sends a delivery to the worker responsible for its Telegram id.
// It blocks while that worker's buffer is full. After Stop the delivery is
// dropped and counted as failed.
func (d *Dispatcher) Enqueue(delivery domain.CredentialDelivery) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
		d.log.Warn().
			Int64("telegram_id", delivery.ExternalID).
			Msg("dispatcher stopped, delivery dropped")
		return
	}

	idx := d.shardIndex(delivery.ExternalID)
	d.workers[idx] <- delivery
	metrics.DeliveryQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a Telegram id deterministically to a worker index.
func (d *Dispatcher) shardIndex(externalID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(externalID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.CredentialDelivery) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-ch:
			if !ok {
				return
			}
			metrics.DeliveryQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, delivery)
		}
	}
}

// deliver runs detached from ctx cancellation so an in-flight push is not
// cut short, bounded by deliveryTimeout instead.
func (d *Dispatcher) deliver(ctx context.Context, worker int, delivery domain.CredentialDelivery) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	start := time.Now()
	err := d.notifier.Deliver(ctx, delivery)
	metrics.DeliveryDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.DeliveriesTotal.WithLabelValues("sent").Inc()
		d.log.Debug().
			Int64("telegram_id", delivery.ExternalID).
			Int("worker_id", worker).
			Msg("credential delivered")
	case errors.Is(err, domain.ErrDuplicateDelivery):
		metrics.DeliveriesTotal.WithLabelValues("duplicate").Inc()
		d.log.Info().
			Int64("telegram_id", delivery.ExternalID).
			Msg("duplicate delivery skipped")
	default:
		metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Int64("telegram_id", delivery.ExternalID).
			Int("worker_id", worker).
			Msg("credential delivery failed")
	}
}
