package appointments

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/audit"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
)

// memAppointments хранилище в памяти с условным обновлением статуса, как в SQL репозитории
type memAppointments struct {
	mu           sync.Mutex
	appointments map[int64]domain.Appointment
	beforeUpdate func(id int64) // вызывается перед условным обновлением, имитирует гонку
}

func newMemAppointments(list ...domain.Appointment) *memAppointments {
	m := &memAppointments{appointments: make(map[int64]domain.Appointment)}
	for _, a := range list {
		if a.ReminderSent == nil {
			a.ReminderSent = domain.ReminderSent{}
		}
		m.appointments[a.ID] = a
	}
	return m
}

func (m *memAppointments) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	a.ReminderSent = copyReminders(a.ReminderSent)
	return &a, nil
}

func (m *memAppointments) List(_ context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Appointment, 0)
	for _, a := range m.appointments {
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.ProviderID != nil && a.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.From != nil && !a.EndsAt.After(*filter.From) {
			continue
		}
		if filter.To != nil && !a.ScheduledAt.Before(*filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 {
			ok := false
			for _, s := range filter.Statuses {
				if a.Status == s {
					ok = true
				}
			}
			if !ok {
				continue
			}
		}
		out := a
		out.ReminderSent = copyReminders(a.ReminderSent)
		result = append(result, &out)
	}
	return result, nil
}

func (m *memAppointments) TransitionStatus(_ context.Context, p appointmentRepo.TransitionParams) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate(p.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[p.ID]
	if !ok || a.Status != p.From {
		return appointmentRepo.ErrStatusConflict
	}
	applyTransition(&a, p)
	m.appointments[p.ID] = a
	return nil
}

func (m *memAppointments) UpdateDetails(_ context.Context, p appointmentRepo.UpdateDetailsParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[p.ID]
	if !ok || !a.IsActive() {
		return appointmentRepo.ErrStatusConflict
	}
	if p.ReasonForVisit != nil {
		a.ReasonForVisit = p.ReasonForVisit
	}
	if p.Notes != nil {
		a.Notes = p.Notes
	}
	a.UpdatedAt = p.At
	m.appointments[p.ID] = a
	return nil
}

func (m *memAppointments) MarkReminderSent(_ context.Context, id int64, kind domain.ReminderKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != domain.StatusConfirmed || a.ReminderSent[kind] {
		return false, nil
	}
	a.ReminderSent = copyReminders(a.ReminderSent)
	a.ReminderSent[kind] = true
	m.appointments[id] = a
	return true, nil
}

func (m *memAppointments) setStatus(id int64, status domain.AppointmentStatus) {
	m.mu.Lock()
	a := m.appointments[id]
	a.Status = status
	m.appointments[id] = a
	m.mu.Unlock()
}

func (m *memAppointments) get(id int64) domain.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appointments[id]
}

func copyReminders(r domain.ReminderSent) domain.ReminderSent {
	out := domain.ReminderSent{}
	for k, v := range r {
		out[k] = v
	}
	return out
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
func (passthroughTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (passthroughTx) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type manualTask struct {
	s         *manualScheduler
	at        time.Time
	name      string
	task      scheduler.Task
	cancelled bool
}

func (t *manualTask) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

// manualScheduler запоминает задачи, тест запускает их явно
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

func (s *manualScheduler) ScheduleAt(at time.Time, name string, task scheduler.Task) scheduler.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTask{s: s, at: at, name: name, task: task}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) fire(name string) int {
	s.mu.Lock()
	pending := make([]*manualTask, 0)
	for _, t := range s.tasks {
		if t.name == name && !t.cancelled {
			t.cancelled = true
			pending = append(pending, t)
		}
	}
	s.mu.Unlock()

	for _, t := range pending {
		t.task(context.Background())
	}
	return len(pending)
}

// activeAt времена запуска не отмененных задач
func (s *manualScheduler) activeAt() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]time.Time)
	for _, t := range s.tasks {
		if !t.cancelled {
			result[t.name] = t.at
		}
	}
	return result
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	n.messages = append(n.messages, msg)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) kinds() []notification.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]notification.Kind, len(n.messages))
	for i, m := range n.messages {
		result[i] = m.Kind
	}
	return result
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]domain.EventType, len(p.events))
	for i, e := range p.events {
		result[i] = e.Type
	}
	return result
}

type invalidations struct {
	mu    sync.Mutex
	calls []int64
}

func (i *invalidations) InvalidateAt(providerID int64, _ time.Time) {
	i.mu.Lock()
	i.calls = append(i.calls, providerID)
	i.mu.Unlock()
}

type recordingCascade struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (c *recordingCascade) NotifyNext(_ context.Context, appointmentID int64) (*domain.WaitlistEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, appointmentID)
	if c.err != nil {
		return nil, c.err
	}
	return &domain.WaitlistEntry{ID: 1, Status: domain.WaitlistNotified}, nil
}

type auditTrail struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *auditTrail) Record(_ context.Context, e audit.Entry) {
	a.mu.Lock()
	a.entries = append(a.entries, e)
	a.mu.Unlock()
}

func (a *auditTrail) list() []audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]audit.Entry(nil), a.entries...)
}

type transitionMetrics struct {
	mu     sync.Mutex
	events map[string]int
}

func (m *transitionMetrics) IncAppointmentTransition(event string) {
	m.mu.Lock()
	if m.events == nil {
		m.events = make(map[string]int)
	}
	m.events[event]++
	m.mu.Unlock()
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
