package scheduler

import (
	"context"
	"runtime/debug"
	"sync"
	"time"
)

// Task отложенная задача
type Task func(ctx context.Context)

// Handle отменяемая ссылка на запланированную задачу
type Handle interface {
	// Cancel отменяет задачу, false если она уже выполняется, выполнена или отменена
	Cancel() bool
}

// Scheduler запускает задачи в заданное время на time.AfterFunc
// Паника внутри задачи перехватывается и логируется, остальные таймеры продолжают работать
type Scheduler struct {
	mu      sync.Mutex
	timers  map[uint64]*time.Timer
	nextID  uint64
	stopped bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger Logger
}

// New создает планировщик
func New(logger Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		timers: make(map[uint64]*time.Timer),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

type handle struct {
	s  *Scheduler
	id uint64
}

func (h *handle) Cancel() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	t, ok := h.s.timers[h.id]
	if !ok {
		return false
	}
	// Задача, которую успели удалить из timers, уже не выполнится: колбэк проверяет наличие
	delete(h.s.timers, h.id)
	t.Stop()
	h.s.wg.Done()
	return true
}

// ScheduleAt планирует задачу на момент at, прошедшее время означает немедленный запуск
func (s *Scheduler) ScheduleAt(at time.Time, name string, task Task) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	h := &handle{s: s, id: id}

	if s.stopped {
		s.logger.Warn("ScheduleAt: scheduler stopped, task %s dropped", name)
		return h
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	s.wg.Add(1)
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, alive := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()

		if !alive {
			return
		}
		defer s.wg.Done()
		s.run(name, task)
	})

	return h
}

func (s *Scheduler) run(name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduler: task %s panicked: %v\n%s", name, r, debug.Stack())
		}
	}()
	task(s.ctx)
}

// Pending количество ожидающих задач
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop отменяет ожидающие задачи и ждет завершения выполняющихся
// Контекст выполняющихся задач отменяется
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
		s.wg.Done()
	}
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
