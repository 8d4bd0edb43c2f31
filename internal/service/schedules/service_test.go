package schedules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	providerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/provider"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedules/models"
)

type mockScheduleRepo struct {
	mock.Mock
}

func (m *mockScheduleRepo) ListByProviderAndRange(ctx context.Context, providerID int64, from, to time.Time) ([]*domain.ProviderSchedule, error) {
	args := m.Called(ctx, providerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ProviderSchedule), args.Error(1)
}

func (m *mockScheduleRepo) Upsert(ctx context.Context, s *domain.ProviderSchedule) (*domain.ProviderSchedule, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderSchedule), args.Error(1)
}

type stubProviders struct {
	err error
}

func (s stubProviders) GetByID(_ context.Context, id int64) (*domain.Provider, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Provider{ID: id}, nil
}

type invalidations struct {
	providerID int64
	date       time.Time
	calls      int
}

func (i *invalidations) Invalidate(providerID int64, date time.Time) {
	i.providerID = providerID
	i.date = date
	i.calls++
}

type recordingPublisher struct {
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return nil
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func validRequest() *models.UpsertScheduleRequest {
	return &models.UpsertScheduleRequest{
		UserID:      7,
		ProviderID:  7,
		Date:        "2025-03-11",
		StartTime:   "09:00",
		EndTime:     "17:00",
		IsAvailable: true,
	}
}

func TestUpsert_SavesAndInvalidates(t *testing.T) {
	repo := &mockScheduleRepo{}
	inv := &invalidations{}
	pub := &recordingPublisher{}
	svc := NewService(repo, stubProviders{}, inv, pub, fixedClock{}, nopLogger{})

	date := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *domain.ProviderSchedule) bool {
		return s.ProviderID == 7 && s.Date.Equal(date) && s.SlotDurationMinutes == domain.DefaultSlotDurationMinutes
	})).Return(&domain.ProviderSchedule{
		ID:                  3,
		ProviderID:          7,
		Date:                date,
		StartTime:           "09:00",
		EndTime:             "17:00",
		SlotDurationMinutes: domain.DefaultSlotDurationMinutes,
		IsAvailable:         true,
	}, nil)

	resp, err := svc.Upsert(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.ID)
	assert.Equal(t, "2025-03-11", resp.Date)
	assert.Equal(t, 30, resp.SlotDurationMinutes)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, int64(7), inv.providerID)
	assert.True(t, inv.date.Equal(date))
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventAvailabilityChanged, pub.events[0].Type)
	repo.AssertExpectations(t)
}

func TestUpsert_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *models.UpsertScheduleRequest)
		providers stubProviders
		wantErr   error
	}{
		{
			name:    "other user",
			mutate:  func(r *models.UpsertScheduleRequest) { r.UserID = 8 },
			wantErr: ErrAccessDenied,
		},
		{
			name:    "bad date",
			mutate:  func(r *models.UpsertScheduleRequest) { r.Date = "11.03.2025" },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "start after end",
			mutate:  func(r *models.UpsertScheduleRequest) { r.StartTime = "18:00" },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "slot too long",
			mutate:  func(r *models.UpsertScheduleRequest) { r.SlotDurationMinutes = 600 },
			wantErr: ErrInvalidInput,
		},
		{
			name:      "unknown provider",
			mutate:    func(r *models.UpsertScheduleRequest) {},
			providers: stubProviders{err: providerRepo.ErrProviderNotFound},
			wantErr:   ErrProviderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockScheduleRepo{}
			inv := &invalidations{}
			svc := NewService(repo, tt.providers, inv, nil, fixedClock{}, nopLogger{})

			req := validRequest()
			tt.mutate(req)

			_, err := svc.Upsert(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, inv.calls)
			repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}
}

func TestUpsert_RepositoryFailure(t *testing.T) {
	repo := &mockScheduleRepo{}
	inv := &invalidations{}
	svc := NewService(repo, stubProviders{}, inv, nil, fixedClock{}, nopLogger{})

	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := svc.Upsert(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrInternal)
	assert.Zero(t, inv.calls)
}

func TestList(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("returns schedules", func(t *testing.T) {
		repo := &mockScheduleRepo{}
		svc := NewService(repo, stubProviders{}, &invalidations{}, nil, fixedClock{}, nopLogger{})
		to := from.AddDate(0, 0, 6)

		repo.On("ListByProviderAndRange", mock.Anything, int64(7), from, to).Return([]*domain.ProviderSchedule{
			{ID: 1, ProviderID: 7, Date: from, StartTime: "09:00", EndTime: "12:00", SlotDurationMinutes: 30},
			{ID: 2, ProviderID: 7, Date: from.AddDate(0, 0, 1), StartTime: "13:00", EndTime: "17:00", SlotDurationMinutes: 20},
		}, nil)

		resp, err := svc.List(context.Background(), &models.ListSchedulesRequest{ProviderID: 7, From: from, To: to})
		require.NoError(t, err)
		require.Len(t, resp.Schedules, 2)
		assert.Equal(t, "2025-03-11", resp.Schedules[1].Date)
		assert.Equal(t, "13:00", resp.Schedules[1].StartTime)
	})

	t.Run("reversed range", func(t *testing.T) {
		svc := NewService(&mockScheduleRepo{}, stubProviders{}, &invalidations{}, nil, fixedClock{}, nopLogger{})
		_, err := svc.List(context.Background(), &models.ListSchedulesRequest{ProviderID: 7, From: from, To: from.AddDate(0, 0, -1)})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("range too wide", func(t *testing.T) {
		svc := NewService(&mockScheduleRepo{}, stubProviders{}, &invalidations{}, nil, fixedClock{}, nopLogger{})
		_, err := svc.List(context.Background(), &models.ListSchedulesRequest{ProviderID: 7, From: from, To: from.AddDate(0, 0, 93)})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
