package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/audit"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

const (
	testPatientID  int64 = 11
	testProviderID int64 = 7
	otherUserID    int64 = 99
)

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type env struct {
	repo      *memAppointments
	timers    *manualScheduler
	notifier  *recordingNotifier
	publisher *recordingPublisher
	cache     *invalidations
	cascade   *recordingCascade
	audit     *auditTrail
	metrics   *transitionMetrics
	svc       *Service
}

func appointmentAt(id int64, status domain.AppointmentStatus, in time.Duration) domain.Appointment {
	start := baseTime.Add(in)
	return domain.Appointment{
		ID:                 id,
		PatientID:          testPatientID,
		ProviderID:         testProviderID,
		AppointmentTypeID:  2,
		ScheduledAt:        start,
		EndsAt:             start.Add(30 * time.Minute),
		Status:             status,
		ConfirmationNumber: "ABCD1234",
	}
}

func newEnv(appointments ...domain.Appointment) *env {
	e := &env{
		repo:      newMemAppointments(appointments...),
		timers:    &manualScheduler{},
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		cache:     &invalidations{},
		cascade:   &recordingCascade{},
		audit:     &auditTrail{},
		metrics:   &transitionMetrics{},
	}
	e.svc = NewService(
		e.repo,
		passthroughTx{},
		e.timers,
		e.notifier,
		e.publisher,
		e.cache,
		e.cascade,
		e.audit,
		e.metrics,
		fixedClock{now: baseTime},
		nopLogger{},
		Config{
			Location:           time.UTC,
			CancellationNotice: 24 * time.Hour,
			ReminderOffsets:    []time.Duration{24 * time.Hour, 2 * time.Hour},
		},
	)
	return e
}

func transition(userID int64, event domain.AppointmentEvent) *models.TransitionRequest {
	return &models.TransitionRequest{UserID: userID, Event: string(event)}
}

func TestTransition_Table(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		from    domain.AppointmentStatus
		event   domain.AppointmentEvent
		want    domain.AppointmentStatus
		wantErr error
	}{
		{"confirm requested", domain.StatusRequested, domain.EventConfirm, domain.StatusConfirmed, nil},
		{"cancel requested", domain.StatusRequested, domain.EventCancel, domain.StatusCancelled, nil},
		{"complete confirmed", domain.StatusConfirmed, domain.EventComplete, domain.StatusCompleted, nil},
		{"cancel confirmed", domain.StatusConfirmed, domain.EventCancel, domain.StatusCancelled, nil},
		{"no show confirmed", domain.StatusConfirmed, domain.EventMarkNoShow, domain.StatusNoShow, nil},
		{"complete requested", domain.StatusRequested, domain.EventComplete, "", domain.ErrInvalidTransition},
		{"no show requested", domain.StatusRequested, domain.EventMarkNoShow, "", domain.ErrInvalidTransition},
		{"confirm confirmed", domain.StatusConfirmed, domain.EventConfirm, "", domain.ErrInvalidTransition},
		{"confirm completed", domain.StatusCompleted, domain.EventConfirm, "", domain.ErrInvalidTransition},
		{"complete no show", domain.StatusNoShow, domain.EventComplete, "", domain.ErrInvalidTransition},
		{"cancel completed", domain.StatusCompleted, domain.EventCancel, "", domain.ErrPolicyViolation},
		{"cancel cancelled", domain.StatusCancelled, domain.EventCancel, "", domain.ErrPolicyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(appointmentAt(1, tt.from, 72*time.Hour))

			resp, err := e.svc.Transition(ctx, 1, transition(testPatientID, tt.event))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Equal(t, tt.from, e.repo.get(1).Status)
				assert.Empty(t, e.publisher.events)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, string(tt.want), resp.Status)
			assert.Equal(t, tt.want, e.repo.get(1).Status)
			assert.Equal(t, 1, e.metrics.events[string(tt.event)])
		})
	}
}

func TestTransition_Timestamps(t *testing.T) {
	ctx := context.Background()
	e := newEnv(appointmentAt(1, domain.StatusRequested, 72*time.Hour))

	_, err := e.svc.Transition(ctx, 1, transition(testProviderID, domain.EventConfirm))
	require.NoError(t, err)
	stored := e.repo.get(1)
	require.NotNil(t, stored.ConfirmedAt)
	assert.True(t, stored.ConfirmedAt.Equal(baseTime))

	_, err = e.svc.Transition(ctx, 1, transition(testProviderID, domain.EventComplete))
	require.NoError(t, err)
	stored = e.repo.get(1)
	require.NotNil(t, stored.CompletedAt)
	assert.Nil(t, stored.CancelledAt)
}

func TestTransition_CancellationPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("ten hours ahead is rejected", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusConfirmed, 10*time.Hour))

		_, err := e.svc.Transition(ctx, 1, transition(testPatientID, domain.EventCancel))

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPolicyViolation))
		assert.True(t, errors.Is(err, domain.ErrPolicyViolation))
		assert.Equal(t, domain.StatusConfirmed, e.repo.get(1).Status)
		assert.Empty(t, e.cascade.calls)
	})

	t.Run("exactly the notice is rejected", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusConfirmed, 24*time.Hour))

		_, err := e.svc.Transition(ctx, 1, transition(testPatientID, domain.EventCancel))

		assert.True(t, errors.Is(err, domain.ErrPolicyViolation))
	})

	t.Run("thirty hours ahead is cancelled", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusConfirmed, 30*time.Hour))
		req := transition(testPatientID, domain.EventCancel)
		req.CancellationReason = ptr.Ptr("feeling better")

		resp, err := e.svc.Transition(ctx, 1, req)

		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCancelled), resp.Status)
		stored := e.repo.get(1)
		require.NotNil(t, stored.CancelledAt)
		require.NotNil(t, stored.CancelledBy)
		assert.Equal(t, cancelledByPatient, *stored.CancelledBy)
		assert.Equal(t, "feeling better", *stored.CancellationReason)
	})
}

func TestTransition_CancelSideEffects(t *testing.T) {
	ctx := context.Background()
	e := newEnv(appointmentAt(1, domain.StatusRequested, 48*time.Hour))

	_, err := e.svc.Transition(ctx, 1, transition(testPatientID, domain.EventConfirm))
	require.NoError(t, err)
	require.Equal(t, 1, e.svc.PendingReminders())

	_, err = e.svc.Transition(ctx, 1, transition(testProviderID, domain.EventCancel))
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, e.cascade.calls)
	assert.Equal(t, []int64{testProviderID}, e.cache.calls)
	assert.Equal(t, cancelledByProvider, *e.repo.get(1).CancelledBy)
	assert.Equal(t, 0, e.svc.PendingReminders())
	assert.Empty(t, e.timers.activeAt())
	assert.Equal(t, []notification.Kind{
		notification.KindAppointmentConfirmed,
		notification.KindAppointmentCancelled,
	}, e.notifier.kinds())
	assert.Equal(t, []domain.EventType{
		domain.EventAppointmentUpdated,
		domain.EventAppointmentUpdated,
		domain.EventAvailabilityChanged,
	}, e.publisher.types())
}

func TestTransition_CascadeFailureKeepsCancellation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(appointmentAt(1, domain.StatusConfirmed, 48*time.Hour))
	e.cascade.err = errors.New("waitlist down")

	resp, err := e.svc.Transition(ctx, 1, transition(testPatientID, domain.EventCancel))

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Equal(t, domain.StatusCancelled, e.repo.get(1).Status)
}

func TestTransition_LostRace(t *testing.T) {
	ctx := context.Background()
	e := newEnv(appointmentAt(1, domain.StatusConfirmed, 48*time.Hour))
	e.repo.beforeUpdate = func(id int64) {
		e.repo.setStatus(id, domain.StatusCompleted)
	}

	_, err := e.svc.Transition(ctx, 1, transition(testProviderID, domain.EventMarkNoShow))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Contains(t, err.Error(), string(domain.StatusCompleted))
	assert.Empty(t, e.publisher.events)
}

func TestTransition_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown event", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusRequested, 48*time.Hour))
		_, err := e.svc.Transition(ctx, 1, &models.TransitionRequest{UserID: testPatientID, Event: "reschedule"})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("not found", func(t *testing.T) {
		e := newEnv()
		_, err := e.svc.Transition(ctx, 5, transition(testPatientID, domain.EventConfirm))
		assert.True(t, errors.Is(err, ErrAppointmentNotFound))
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("not a participant", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusRequested, 48*time.Hour))
		_, err := e.svc.Transition(ctx, 1, transition(otherUserID, domain.EventConfirm))
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		assert.Equal(t, domain.StatusRequested, e.repo.get(1).Status)
	})
}

func TestReminders(t *testing.T) {
	ctx := context.Background()

	t.Run("scheduled on confirm", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusRequested, 48*time.Hour))

		_, err := e.svc.Transition(ctx, 1, transition(testProviderID, domain.EventConfirm))
		require.NoError(t, err)

		start := baseTime.Add(48 * time.Hour)
		assert.Equal(t, map[string]time.Time{
			"appointment-reminder-1-24h": start.Add(-24 * time.Hour),
			"appointment-reminder-1-2h":  start.Add(-2 * time.Hour),
		}, e.timers.activeAt())
	})

	t.Run("past offsets are skipped", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusRequested, 5*time.Hour))

		_, err := e.svc.Transition(ctx, 1, transition(testProviderID, domain.EventConfirm))
		require.NoError(t, err)

		assert.Len(t, e.timers.activeAt(), 1)
		assert.Contains(t, e.timers.activeAt(), "appointment-reminder-1-2h")
	})

	t.Run("sent once", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusRequested, 48*time.Hour))
		_, err := e.svc.Transition(ctx, 1, transition(testProviderID, domain.EventConfirm))
		require.NoError(t, err)

		assert.Equal(t, 1, e.timers.fire("appointment-reminder-1-24h"))
		assert.True(t, e.repo.get(1).ReminderSent["24h"])

		sent, err := e.svc.SendReminder(ctx, 1, "24h")
		require.NoError(t, err)
		assert.False(t, sent)

		reminders := 0
		for _, k := range e.notifier.kinds() {
			if k == notification.KindAppointmentReminder {
				reminders++
			}
		}
		assert.Equal(t, 1, reminders)
	})

	t.Run("not sent for cancelled appointment", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusCancelled, 48*time.Hour))

		sent, err := e.svc.SendReminder(ctx, 1, "2h")

		require.NoError(t, err)
		assert.False(t, sent)
		assert.Empty(t, e.notifier.kinds())
	})

	t.Run("scheduled for appointment handed over from waitlist", func(t *testing.T) {
		e := newEnv()
		claimed := appointmentAt(5, domain.StatusConfirmed, 48*time.Hour)

		n := e.svc.ScheduleReminders(&claimed)

		assert.Equal(t, 2, n)
		assert.Contains(t, e.timers.activeAt(), "appointment-reminder-5-24h")
		assert.Contains(t, e.timers.activeAt(), "appointment-reminder-5-2h")

		requested := appointmentAt(6, domain.StatusRequested, 48*time.Hour)
		assert.Zero(t, e.svc.ScheduleReminders(&requested))
	})

	t.Run("restored after restart", func(t *testing.T) {
		sent := appointmentAt(1, domain.StatusConfirmed, 48*time.Hour)
		sent.ReminderSent = domain.ReminderSent{"24h": true}
		e := newEnv(
			sent,
			appointmentAt(2, domain.StatusConfirmed, 72*time.Hour),
			appointmentAt(3, domain.StatusRequested, 72*time.Hour),
			appointmentAt(4, domain.StatusConfirmed, -72*time.Hour),
		)

		n, err := e.svc.RestoreReminders(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, n)
		active := e.timers.activeAt()
		assert.Contains(t, active, "appointment-reminder-1-2h")
		assert.NotContains(t, active, "appointment-reminder-1-24h")
		assert.Contains(t, active, "appointment-reminder-2-24h")
		assert.Contains(t, active, "appointment-reminder-2-2h")
	})
}

func TestReadAccess(t *testing.T) {
	ctx := context.Background()
	e := newEnv(
		appointmentAt(1, domain.StatusConfirmed, 48*time.Hour),
		appointmentAt(2, domain.StatusCancelled, 72*time.Hour),
	)

	t.Run("participants can read", func(t *testing.T) {
		for _, userID := range []int64{testPatientID, testProviderID} {
			resp, err := e.svc.GetByID(ctx, 1, userID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), resp.ID)
			assert.Equal(t, 30, resp.DurationMinutes)
		}
	})

	t.Run("others cannot", func(t *testing.T) {
		_, err := e.svc.GetByID(ctx, 1, otherUserID)
		assert.True(t, errors.Is(err, ErrAccessDenied))
	})

	t.Run("patient list with status filter", func(t *testing.T) {
		resp, err := e.svc.ListPatientAppointments(ctx, &models.GetPatientAppointmentsRequest{
			UserID:    testPatientID,
			PatientID: testPatientID,
			Status:    ptr.Ptr("cancelled"),
		})
		require.NoError(t, err)
		require.Len(t, resp.Appointments, 1)
		assert.Equal(t, int64(2), resp.Appointments[0].ID)
	})

	t.Run("patient list invalid status", func(t *testing.T) {
		_, err := e.svc.ListPatientAppointments(ctx, &models.GetPatientAppointmentsRequest{
			UserID:    testPatientID,
			PatientID: testPatientID,
			Status:    ptr.Ptr("lost"),
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("provider list by period", func(t *testing.T) {
		from := baseTime.Add(24 * time.Hour)
		to := baseTime.Add(60 * time.Hour)
		resp, err := e.svc.ListProviderAppointments(ctx, &models.GetProviderAppointmentsRequest{
			UserID:     testProviderID,
			ProviderID: testProviderID,
			StartDate:  &from,
			EndDate:    &to,
		})
		require.NoError(t, err)
		require.Len(t, resp.Appointments, 1)
		assert.Equal(t, int64(1), resp.Appointments[0].ID)
	})

	t.Run("provider list by someone else", func(t *testing.T) {
		_, err := e.svc.ListProviderAppointments(ctx, &models.GetProviderAppointmentsRequest{
			UserID:     testPatientID,
			ProviderID: testProviderID,
		})
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})
}

func TestReadAccess_AuditTrail(t *testing.T) {
	ctx := context.Background()
	e := newEnv(appointmentAt(1, domain.StatusConfirmed, 48*time.Hour))

	_, err := e.svc.GetByID(ctx, 1, testProviderID)
	require.NoError(t, err)
	_, err = e.svc.GetByID(ctx, 1, otherUserID)
	require.Error(t, err)
	_, err = e.svc.ListProviderAppointments(ctx, &models.GetProviderAppointmentsRequest{
		UserID:     testProviderID,
		ProviderID: testProviderID,
	})
	require.NoError(t, err)

	entries := e.audit.list()
	require.Len(t, entries, 2)

	assert.Equal(t, audit.ActionRead, entries[0].Action)
	assert.Equal(t, "appointment", entries[0].Resource)
	assert.Equal(t, int64(1), entries[0].ResourceID)
	assert.Equal(t, testProviderID, entries[0].UserID)
	assert.Equal(t, testPatientID, entries[0].PatientID)
	assert.True(t, entries[0].At.Equal(baseTime))

	assert.Equal(t, audit.ActionSearch, entries[1].Action)
	assert.Equal(t, testPatientID, entries[1].PatientID)
}

func TestUpdateDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("patient updates reason and notes", func(t *testing.T) {
		e := newEnv(appointmentAt(1, domain.StatusConfirmed, 48*time.Hour))

		resp, err := e.svc.UpdateDetails(ctx, 1, &models.UpdateDetailsRequest{
			UserID:         testPatientID,
			ReasonForVisit: ptr.Ptr("повторный осмотр"),
			Notes:          ptr.Ptr("нужен переводчик"),
		})
		require.NoError(t, err)
		assert.Equal(t, "повторный осмотр", *resp.ReasonForVisit)
		assert.Equal(t, "нужен переводчик", *resp.Notes)
		assert.Equal(t, "confirmed", resp.Status)

		stored := e.repo.get(1)
		assert.Equal(t, "повторный осмотр", *stored.ReasonForVisit)
		assert.True(t, stored.UpdatedAt.Equal(baseTime))

		assert.Equal(t, []domain.EventType{domain.EventAppointmentUpdated}, e.publisher.types())

		entries := e.audit.list()
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionUpdate, entries[0].Action)
		assert.Equal(t, []string{"reason_for_visit", "notes"}, entries[0].Fields)
	})

	t.Run("untouched field keeps value", func(t *testing.T) {
		a := appointmentAt(1, domain.StatusRequested, 48*time.Hour)
		a.ReasonForVisit = ptr.Ptr("боль в спине")
		e := newEnv(a)

		resp, err := e.svc.UpdateDetails(ctx, 1, &models.UpdateDetailsRequest{UserID: testPatientID, Notes: ptr.Ptr("")})
		require.NoError(t, err)
		assert.Equal(t, "боль в спине", *resp.ReasonForVisit)
		assert.Equal(t, "", *resp.Notes)
	})

	tests := []struct {
		name    string
		status  domain.AppointmentStatus
		req     *models.UpdateDetailsRequest
		wantErr error
	}{
		{
			name:    "nothing to update",
			status:  domain.StatusConfirmed,
			req:     &models.UpdateDetailsRequest{UserID: testPatientID},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "reason too long",
			status:  domain.StatusConfirmed,
			req:     &models.UpdateDetailsRequest{UserID: testPatientID, ReasonForVisit: ptr.Ptr(string(make([]byte, domain.MaxReasonLength+1)))},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "provider cannot edit patient fields",
			status:  domain.StatusConfirmed,
			req:     &models.UpdateDetailsRequest{UserID: testProviderID, Notes: ptr.Ptr("x")},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "cancelled appointment",
			status:  domain.StatusCancelled,
			req:     &models.UpdateDetailsRequest{UserID: testPatientID, Notes: ptr.Ptr("x")},
			wantErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(appointmentAt(1, tt.status, 48*time.Hour))

			_, err := e.svc.UpdateDetails(ctx, 1, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, e.repo.get(1).Notes)
			assert.Empty(t, e.publisher.types())
			assert.Empty(t, e.audit.list())
		})
	}

	t.Run("unknown appointment", func(t *testing.T) {
		e := newEnv()
		_, err := e.svc.UpdateDetails(ctx, 5, &models.UpdateDetailsRequest{UserID: testPatientID, Notes: ptr.Ptr("x")})
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}
