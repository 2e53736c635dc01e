package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-system/internal/api/metrics"
	"github.com/99minutos/account-system/internal/core/domain"
	"github.com/99minutos/account-system/internal/core/ports"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
	defaultTimeout   = 10 * time.Second
)

var (
	ErrQueueFull         = errors.New("notification queue is full")
	ErrDispatcherStopped = errors.New("notification dispatcher is stopped")
)

// Claimer records that a notification id is being delivered. Claim returns
// false when the id was already claimed.
type Claimer interface {
	Claim(ctx context.Context, id string) (bool, error)
}

// Config sizes the dispatcher. Zero values fall back to the defaults.
type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Dispatcher delivers notifications asynchronously through a fixed set of
// workers. Notifications are sharded by recipient so that messages to the same
// address are delivered in the order they were accepted.
type Dispatcher struct {
	workers []chan domain.Notification
	sink    ports.NotificationSink
	claimer Claimer
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	baseCtx context.Context
}

// NewDispatcher creates a Dispatcher. claimer may be nil, in which case every
// accepted notification is delivered.
func NewDispatcher(cfg Config, sink ports.NotificationSink, claimer Claimer, log zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	d := &Dispatcher{
		workers: make([]chan domain.Notification, cfg.Workers),
		sink:    sink,
		claimer: claimer,
		timeout: cfg.Timeout,
		log:     log,
		baseCtx: context.Background(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, cfg.QueueSize)
	}
	return d
}

// Start launches all worker goroutines. ctx is the parent of every delivery
// context; cancelling it aborts in-flight deliveries.
func (d *Dispatcher) Start(ctx context.Context) {
	d.baseCtx = ctx
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Notify enqueues n on the worker responsible for its recipient. It never
// blocks: a full shard returns ErrQueueFull.
func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return ErrDispatcherStopped
	}

	idx := d.shardIndex(n.Recipient)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Stop refuses new notifications, lets workers drain what is queued and waits
// for them to finish.
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

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan domain.Notification) {
	defer d.wg.Done()
	workerID := strconv.Itoa(id)

	for n := range ch {
		metrics.NotificationQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
		d.deliver(id, n)
	}
}

func (d *Dispatcher) deliver(workerID int, n domain.Notification) {
	ctx, cancel := context.WithTimeout(d.baseCtx, d.timeout)
	defer cancel()

	log := d.log.With().
		Str("notification_id", n.ID).
		Str("kind", string(n.Kind)).
		Int("worker_id", workerID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			log.Error().Interface("panic", r).Msg("notification sink panicked")
		}
	}()

	if d.claimer != nil && n.ID != "" {
		first, err := d.claimer.Claim(ctx, n.ID)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("notification dedup unavailable, delivering anyway")
		case !first:
			metrics.NotificationsTotal.WithLabelValues("duplicate").Inc()
			log.Debug().Msg("notification already delivered")
			return
		}
	}

	start := time.Now()
	if err := d.sink.Deliver(ctx, n.Recipient, n.Subject, n.Body); err != nil {
		metrics.NotificationDeliveryDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("notification delivery failed")
		return
	}
	metrics.NotificationDeliveryDuration.WithLabelValues("delivered").Observe(time.Since(start).Seconds())
	metrics.NotificationsTotal.WithLabelValues("delivered").Inc()
}
