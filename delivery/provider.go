// Package delivery sends best-effort notices to users and administrators.
// A Dispatcher accepts notices without ever blocking on, or reporting, the
// outcome of delivery; a Provider performs the actual send.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
	defaultTimeout   = 10 * time.Second
)

// Provider is the adapter interface for delivery mechanisms.
// Implement this to add new transports (email relay, SendGrid, log, ...).
type Provider interface {
	// Type names the transport, used in logs and metrics.
	Type() string
	// Deliver sends one rendered message to address.
	Deliver(ctx context.Context, address, subject, body string) error
}

// Notice is one rendered message for one recipient.
type Notice struct {
	Address string
	Subject string
	Body    string
}

type DispatcherConfig struct {
	Workers   int
	QueueSize int
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Dispatcher delivers notices on a pool of workers. Each notice handed to
// Notify is attempted exactly once; failures are logged and counted, never
// returned.
type Dispatcher struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger

	queue    chan job
	workers  sync.WaitGroup
	overflow sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type job struct {
	ctx    context.Context
	notice Notice
}

func NewDispatcher(provider Provider, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	d := &Dispatcher{
		provider: provider,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger.With("component", "dispatcher", "provider", provider.Type()),
		queue:    make(chan job, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.workers.Add(1)
		go d.work()
	}
	return d
}

// Notify hands n to the dispatcher and returns immediately. The caller's
// context contributes values for logging but its cancellation does not stop
// the delivery.
func (d *Dispatcher) Notify(ctx context.Context, n Notice) {
	if n.Address == "" {
		observeNotification(d.provider.Type(), resultSkipped, 0)
		d.logger.WarnContext(ctx, "Notice has no recipient address, skipping", "subject", n.Subject)
		return
	}

	j := job{ctx: context.WithoutCancel(ctx), notice: n}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.WarnContext(ctx, "Dispatcher closed, delivering notice outside the pool", "to", n.Address)
		go d.deliver(j)
		return
	}

	select {
	case d.queue <- j:
	default:
		// Queue full: still attempt the notice, just not on a pooled worker.
		d.overflow.Add(1)
		go func() {
			defer d.overflow.Done()
			d.deliver(j)
		}()
	}
}

// Close stops accepting queued work and waits for queued and in-flight
// notices to finish, or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		d.overflow.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher drain interrupted: %w", ctx.Err())
	}
}

func (d *Dispatcher) work() {
	defer d.workers.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			observeNotification(d.provider.Type(), resultFailed, time.Since(start))
			d.logger.ErrorContext(ctx, "Provider panicked during delivery", "to", j.notice.Address, "panic", r)
		}
	}()

	if err := d.provider.Deliver(ctx, j.notice.Address, j.notice.Subject, j.notice.Body); err != nil {
		observeNotification(d.provider.Type(), resultFailed, time.Since(start))
		d.logger.ErrorContext(ctx, "Notice delivery failed", "to", j.notice.Address, "subject", j.notice.Subject, "error", err)
		return
	}

	observeNotification(d.provider.Type(), resultSent, time.Since(start))
	d.logger.InfoContext(ctx, "Notice delivered", "to", j.notice.Address, "subject", j.notice.Subject)
}
