package notification

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DispatcherConfig параметры диспетчера
type DispatcherConfig struct {
	Workers     int
	BufferSize  int
	MaxAttempts int
	BaseBackoff time.Duration
	SendTimeout time.Duration
}

func (c *DispatcherConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 200 * time.Millisecond
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
}

// Dispatcher асинхронно доставляет уведомления пулом воркеров с повторами
// Send никогда не блокирует вызывающего: при переполненной очереди уведомление отбрасывается
type Dispatcher struct {
	sender  Sender
	cfg     DispatcherConfig
	logger  Logger
	metrics Metrics

	queue   chan Message
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher создает диспетчер, воркеры запускаются через Start
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger Logger, metrics Metrics) *Dispatcher {
	cfg.applyDefaults()
	return &Dispatcher{
		sender:  sender,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan Message, cfg.BufferSize),
	}
}

// Start запускает воркеры
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Send ставит уведомление в очередь
func (d *Dispatcher) Send(_ context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.queue <- msg:
		d.metrics.IncNotification("queued")
		return nil
	default:
		d.metrics.IncNotification("dropped")
		d.logger.Error("Notification: queue full, dropping %s for patient_id=%d (id=%s)", msg.Kind, msg.PatientID, msg.ID)
		return ErrQueueFull
	}
}

// Stop прекращает прием уведомлений и дожидается доставки очереди
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		err = d.sender.Send(ctx, msg)
		cancel()

		if err == nil {
			d.metrics.IncNotification("sent")
			return
		}

		d.logger.Warn("Notification: attempt %d/%d failed for %s (id=%s): %v",
			attempt, d.cfg.MaxAttempts, msg.Kind, msg.ID, err)

		if attempt < d.cfg.MaxAttempts {
			time.Sleep(d.cfg.BaseBackoff * time.Duration(1<<(attempt-1)))
		}
	}

	d.metrics.IncNotification("failed")
	d.logger.Error("Notification: giving up on %s for patient_id=%d (id=%s): %v",
		msg.Kind, msg.PatientID, msg.ID, fmt.Errorf("%w: %v", ErrSend, err))
}
