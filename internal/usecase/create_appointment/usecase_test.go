package create_appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	patientRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/patient"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/insuranceservice"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// memAppointments хранилище в памяти, первые collisions вставок получают коллизию номера
type memAppointments struct {
	mu         sync.Mutex
	items      []*domain.Appointment
	collisions int
	attempts   int
}

func (m *memAppointments) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.attempts <= m.collisions {
		return nil, appointmentRepo.ErrConfirmationNumberTaken
	}
	out := *a
	out.ID = int64(len(m.items) + 100)
	m.items = append(m.items, &out)
	return &out, nil
}

func (m *memAppointments) List(_ context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Appointment, 0)
	for _, a := range m.items {
		if filter.ProviderID != nil && a.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.From != nil && !a.EndsAt.After(*filter.From) {
			continue
		}
		if filter.To != nil && !a.ScheduledAt.Before(*filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 && !a.IsActive() {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

type stubSchedules struct {
	schedule *domain.ProviderSchedule
}

func (s stubSchedules) GetByProviderAndDate(_ context.Context, providerID int64, date time.Time) (*domain.ProviderSchedule, error) {
	if s.schedule == nil || s.schedule.ProviderID != providerID || !s.schedule.Date.Equal(date) {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	out := *s.schedule
	return &out, nil
}

type stubProviders struct{ provider *domain.Provider }

func (s stubProviders) GetByID(context.Context, int64) (*domain.Provider, error) {
	return s.provider, nil
}

type stubPatients struct{ patient *domain.Patient }

func (s stubPatients) GetByID(_ context.Context, id int64) (*domain.Patient, error) {
	if s.patient == nil || s.patient.ID != id {
		return nil, patientRepo.ErrPatientNotFound
	}
	return s.patient, nil
}

type stubTypes struct{ t *domain.AppointmentType }

func (s stubTypes) GetByID(context.Context, int64) (*domain.AppointmentType, error) {
	return s.t, nil
}

type mockInsurance struct{ mock.Mock }

func (m *mockInsurance) VerifyEligibilityWithGracefulDegradation(ctx context.Context, req insuranceservice.EligibilityRequest) (*insuranceservice.EligibilityResponse, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*insuranceservice.EligibilityResponse)
	return r, args.Error(1)
}

type recordingInvalidator struct{ calls int }

func (r *recordingInvalidator) InvalidateAt(int64, time.Time) { r.calls++ }

type recordingPublisher struct{ events []domain.Event }

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	appointments *memAppointments
	insurance    *mockInsurance
	invalidator  *recordingInvalidator
	publisher    *recordingPublisher
	uc           *UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		appointments: &memAppointments{},
		insurance:    &mockInsurance{},
		invalidator:  &recordingInvalidator{},
		publisher:    &recordingPublisher{},
	}
	schedule := &domain.ProviderSchedule{
		ID:                  1,
		ProviderID:          7,
		Date:                time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		StartTime:           "09:00",
		EndTime:             "12:00",
		SlotDurationMinutes: 30,
		IsAvailable:         true,
	}
	f.uc = NewUseCase(
		f.appointments,
		stubSchedules{schedule: schedule},
		stubProviders{provider: &domain.Provider{ID: 7, BookingBufferMinutes: 15}},
		stubPatients{patient: &domain.Patient{ID: 11, PrimaryInsurer: ptr.Ptr("Acme"), InsuranceMember: ptr.Ptr("M-1")}},
		stubTypes{t: &domain.AppointmentType{ID: 2, Name: "Follow-up Visit", DurationMinutes: 30}},
		f.insurance,
		f.invalidator,
		f.publisher,
		passthroughTx{},
		fixedClock{},
		nopLogger{},
		time.UTC,
	)
	return f
}

func at(hhmm string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04", "2025-03-12 "+hhmm)
	return t
}

func request(hhmm string) *Request {
	return &Request{PatientID: 11, ProviderID: 7, AppointmentTypeID: 2, ScheduledAt: at(hhmm)}
}

func TestExecute_Success(t *testing.T) {
	f := newFixture(t)
	f.insurance.On("VerifyEligibilityWithGracefulDegradation", mock.Anything, insuranceservice.EligibilityRequest{
		MemberID: "M-1", InsuranceCompany: "Acme", ServiceDate: "2025-03-12",
	}).Return(&insuranceservice.EligibilityResponse{Eligible: true, PlanName: "Gold"}, nil)

	resp, err := f.uc.Execute(context.Background(), request("10:00"))

	require.NoError(t, err)
	a := resp.Appointment
	assert.Equal(t, domain.StatusRequested, a.Status)
	assert.Equal(t, at("10:30"), a.EndsAt)
	assert.True(t, domain.IsValidConfirmationNumber(a.ConfirmationNumber))
	require.NotNil(t, resp.Insurance)
	assert.True(t, resp.Insurance.Eligible)
	assert.Equal(t, 1, f.invalidator.calls)
	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, domain.EventAppointmentUpdated, f.publisher.events[0].Type)
	assert.Equal(t, domain.EventAvailabilityChanged, f.publisher.events[1].Type)
	f.insurance.AssertExpectations(t)
}

func TestExecute_InsuranceFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.insurance.On("VerifyEligibilityWithGracefulDegradation", mock.Anything, mock.Anything).
		Return(nil, insuranceservice.ErrServiceDegraded)

	resp, err := f.uc.Execute(context.Background(), request("10:00"))

	require.NoError(t, err)
	assert.Nil(t, resp.Insurance)
	assert.NotZero(t, resp.Appointment.ID)
}

func TestExecute_RetriesConfirmationNumber(t *testing.T) {
	f := newFixture(t)
	f.appointments.collisions = 2
	f.insurance.On("VerifyEligibilityWithGracefulDegradation", mock.Anything, mock.Anything).
		Return(&insuranceservice.EligibilityResponse{Eligible: true}, nil)

	_, err := f.uc.Execute(context.Background(), request("10:00"))

	require.NoError(t, err)
	assert.Equal(t, 3, f.appointments.attempts)
}

func TestExecute_GivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture(t)
	f.appointments.collisions = domain.ConfirmationNumberMaxRetries

	_, err := f.uc.Execute(context.Background(), request("10:00"))

	assert.True(t, errors.Is(err, ErrInternal))
	assert.Equal(t, domain.ConfirmationNumberMaxRetries, f.appointments.attempts)
}

func TestExecute_Rejections(t *testing.T) {
	existing := func(f *fixture, providerID, patientID int64, hhmm string, minutes int) {
		start := at(hhmm)
		f.appointments.items = append(f.appointments.items, &domain.Appointment{
			ID: 1, PatientID: patientID, ProviderID: providerID, ScheduledAt: start,
			EndsAt: start.Add(time.Duration(minutes) * time.Minute), Status: domain.StatusConfirmed,
		})
	}

	tests := []struct {
		name    string
		setup   func(f *fixture)
		req     *Request
		wantErr error
	}{
		{
			name:    "in the past",
			req:     &Request{PatientID: 11, ProviderID: 7, AppointmentTypeID: 2, ScheduledAt: now.Add(-time.Hour)},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "exactly now",
			req:     &Request{PatientID: 11, ProviderID: 7, AppointmentTypeID: 2, ScheduledAt: now},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing ids",
			req:     &Request{ProviderID: 7, AppointmentTypeID: 2, ScheduledAt: at("10:00")},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "no schedule for date",
			req:     &Request{PatientID: 11, ProviderID: 7, AppointmentTypeID: 2, ScheduledAt: at("10:00").AddDate(0, 0, 1)},
			wantErr: domain.ErrProviderUnavailable,
		},
		{
			name:    "outside working hours",
			req:     request("11:45"),
			wantErr: domain.ErrProviderUnavailable,
		},
		{
			name:    "overlaps provider appointment",
			setup:   func(f *fixture) { existing(f, 7, 50, "10:15", 30) },
			req:     request("10:00"),
			wantErr: domain.ErrSchedulingConflict,
		},
		{
			name:    "inside provider buffer",
			setup:   func(f *fixture) { existing(f, 7, 50, "10:00", 10) },
			req:     request("10:10"),
			wantErr: domain.ErrSchedulingConflict,
		},
		{
			name:    "patient double booked",
			setup:   func(f *fixture) { existing(f, 8, 11, "09:50", 30) },
			req:     request("10:00"),
			wantErr: domain.ErrSchedulingConflict,
		},
		{
			name:    "unknown patient",
			req:     &Request{PatientID: 12, ProviderID: 7, AppointmentTypeID: 2, ScheduledAt: at("10:00")},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.uc.Execute(context.Background(), tt.req)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Zero(t, f.invalidator.calls)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestExecute_CancelledAppointmentDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	start := at("10:00")
	f.appointments.items = append(f.appointments.items, &domain.Appointment{
		ID: 1, PatientID: 50, ProviderID: 7, ScheduledAt: start,
		EndsAt: start.Add(30 * time.Minute), Status: domain.StatusCancelled,
	})
	f.insurance.On("VerifyEligibilityWithGracefulDegradation", mock.Anything, mock.Anything).
		Return(&insuranceservice.EligibilityResponse{Eligible: true}, nil)

	_, err := f.uc.Execute(context.Background(), request("10:00"))

	assert.NoError(t, err)
}
