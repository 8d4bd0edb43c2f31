package waitlist

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	waitlistRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
)

// memWaitlist хранилище в памяти с теми же условными обновлениями, что и SQL репозиторий
type memWaitlist struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]domain.WaitlistEntry
}

func newMemWaitlist() *memWaitlist {
	return &memWaitlist{entries: make(map[int64]domain.WaitlistEntry)}
}

func (m *memWaitlist) Create(_ context.Context, e *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *e
	stored.ID = m.nextID
	stored.Version = 1
	m.entries[stored.ID] = stored
	out := stored
	return &out, nil
}

func (m *memWaitlist) GetByID(_ context.Context, id int64) (*domain.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, waitlistRepo.ErrEntryNotFound
	}
	return &e, nil
}

func (m *memWaitlist) matching(filter domain.WaitlistCandidatesFilter) []domain.WaitlistEntry {
	result := make([]domain.WaitlistEntry, 0)
	for _, e := range m.entries {
		if e.ProviderID != filter.ProviderID || e.AppointmentTypeID != filter.AppointmentTypeID {
			continue
		}
		if !e.CoversDate(filter.Date) || !e.PrefersTimeOfDay(filter.SlotType) {
			continue
		}
		if filter.ExcludeID != nil && e.ID == *filter.ExcludeID {
			continue
		}
		if filter.OfferedAppointmentID != nil && e.Status == domain.WaitlistNotified &&
			(e.OfferedAppointmentID == nil || *e.OfferedAppointmentID != *filter.OfferedAppointmentID) {
			continue
		}
		if len(filter.Statuses) > 0 {
			ok := false
			for _, s := range filter.Statuses {
				if e.Status == s {
					ok = true
				}
			}
			if !ok {
				continue
			}
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (m *memWaitlist) ListCandidates(_ context.Context, filter domain.WaitlistCandidatesFilter) ([]*domain.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := m.matching(filter)
	result := make([]*domain.WaitlistEntry, len(found))
	for i := range found {
		e := found[i]
		result[i] = &e
	}
	return result, nil
}

func (m *memWaitlist) GetOutstandingOffer(_ context.Context, appointmentID int64) (*domain.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Status == domain.WaitlistNotified && e.OfferedAppointmentID != nil && *e.OfferedAppointmentID == appointmentID {
			out := e
			return &out, nil
		}
	}
	return nil, waitlistRepo.ErrEntryNotFound
}

func (m *memWaitlist) ListNotified(_ context.Context) ([]*domain.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.WaitlistEntry, 0)
	for _, e := range m.entries {
		if e.Status == domain.WaitlistNotified {
			out := e
			result = append(result, &out)
		}
	}
	return result, nil
}

func (m *memWaitlist) MarkNotified(_ context.Context, id, version, appointmentID int64, notifiedAt, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.Status != domain.WaitlistActive || e.Version != version {
		return waitlistRepo.ErrVersionConflict
	}
	e.Status = domain.WaitlistNotified
	e.NotifiedAt = &notifiedAt
	e.ExpiresAt = &expiresAt
	e.OfferedAppointmentID = &appointmentID
	e.Version++
	m.entries[id] = e
	return nil
}

func (m *memWaitlist) CompareAndSetStatus(_ context.Context, id, version int64, from, to domain.WaitlistStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.Status != from || e.Version != version {
		return waitlistRepo.ErrVersionConflict
	}
	e.Status = to
	e.Version++
	e.UpdatedAt = at
	m.entries[id] = e
	return nil
}

func (m *memWaitlist) ExpireCompetitors(_ context.Context, filter domain.WaitlistCandidatesFilter, at time.Time) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0)
	for _, e := range m.matching(filter) {
		e.Status = domain.WaitlistExpired
		e.Version++
		e.UpdatedAt = at
		m.entries[e.ID] = e
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func (m *memWaitlist) UpdatePriority(_ context.Context, id int64, priority int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return waitlistRepo.ErrEntryNotFound
	}
	e.Priority = priority
	e.UpdatedAt = at
	m.entries[id] = e
	return nil
}

func (m *memWaitlist) status(id int64) domain.WaitlistStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id].Status
}

type memAppointments struct {
	mu           sync.Mutex
	appointments map[int64]domain.Appointment
	history      map[int64]domain.PatientHistory
}

func newMemAppointments() *memAppointments {
	return &memAppointments{
		appointments: make(map[int64]domain.Appointment),
		history:      make(map[int64]domain.PatientHistory),
	}
}

func (m *memAppointments) put(a domain.Appointment) {
	m.mu.Lock()
	m.appointments[a.ID] = a
	m.mu.Unlock()
}

func (m *memAppointments) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memAppointments) List(_ context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Appointment, 0)
	for _, a := range m.appointments {
		if filter.ProviderID != nil && a.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.To != nil && !a.ScheduledAt.Before(*filter.To) {
			continue
		}
		if filter.From != nil && !a.EndsAt.After(*filter.From) {
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
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

func (m *memAppointments) Reassign(_ context.Context, id, patientID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != domain.StatusCancelled {
		return appointmentRepo.ErrStatusConflict
	}
	a.PatientID = patientID
	a.Status = domain.StatusConfirmed
	a.ConfirmedAt = &at
	a.CancelledAt = nil
	m.appointments[id] = a
	return nil
}

func (m *memAppointments) CountHistory(_ context.Context, patientID int64) (domain.PatientHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[patientID], nil
}

type stubProviders struct {
	bufferMinutes int
}

func (p stubProviders) GetByID(_ context.Context, id int64) (*domain.Provider, error) {
	return &domain.Provider{ID: id, BookingBufferMinutes: p.bufferMinutes}, nil
}

// scheduledReminders запоминает приемы, для которых поставлены напоминания
type scheduledReminders struct {
	mu  sync.Mutex
	ids []int64
}

func (r *scheduledReminders) ScheduleReminders(a *domain.Appointment) int {
	r.mu.Lock()
	r.ids = append(r.ids, a.ID)
	r.mu.Unlock()
	return 1
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

// fire запускает все не отмененные задачи с именем name
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

func (s *manualScheduler) active(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.name == name && !t.cancelled {
			n++
		}
	}
	return n
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

type invalidations struct {
	mu    sync.Mutex
	calls int
}

func (i *invalidations) InvalidateAt(int64, time.Time) {
	i.mu.Lock()
	i.calls++
	i.mu.Unlock()
}

type claimMetrics struct {
	mu                               sync.Mutex
	notifications, won, lost, expiry int
}

func (m *claimMetrics) IncWaitlistNotification() {
	m.mu.Lock()
	m.notifications++
	m.mu.Unlock()
}

func (m *claimMetrics) IncWaitlistClaim(result string) {
	m.mu.Lock()
	if result == claimWon {
		m.won++
	} else {
		m.lost++
	}
	m.mu.Unlock()
}

func (m *claimMetrics) IncWaitlistExpiration() {
	m.mu.Lock()
	m.expiry++
	m.mu.Unlock()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
