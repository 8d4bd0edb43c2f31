package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	appointmentTypeRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointmenttype"
	patientRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/patient"
	providerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/provider"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/insuranceservice"
)

// UseCase use case для записи к врачу
type UseCase struct {
	appointmentRepo     AppointmentRepository
	scheduleRepo        ScheduleRepository
	providerRepo        ProviderRepository
	patientRepo         PatientRepository
	appointmentTypeRepo AppointmentTypeRepository
	insuranceClient     InsuranceClient
	availability        AvailabilityInvalidator
	publisher           EventPublisher
	txManager           TransactionManager
	timeProvider        TimeProvider
	logger              Logger
	loc                 *time.Location
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	scheduleRepo ScheduleRepository,
	providerRepo ProviderRepository,
	patientRepo PatientRepository,
	appointmentTypeRepo AppointmentTypeRepository,
	insuranceClient InsuranceClient,
	availability AvailabilityInvalidator,
	publisher EventPublisher,
	txManager TransactionManager,
	timeProvider TimeProvider,
	logger Logger,
	loc *time.Location,
) *UseCase {
	if timeProvider == nil {
		timeProvider = &RealTimeProvider{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &UseCase{
		appointmentRepo:     appointmentRepo,
		scheduleRepo:        scheduleRepo,
		providerRepo:        providerRepo,
		patientRepo:         patientRepo,
		appointmentTypeRepo: appointmentTypeRepo,
		insuranceClient:     insuranceClient,
		availability:        availability,
		publisher:           publisher,
		txManager:           txManager,
		timeProvider:        timeProvider,
		logger:              logger,
		loc:                 loc,
	}
}

// Execute выполняет use case записи к врачу
// Проверка расписания, пересечений и вставка выполняются в одной сериализуемой транзакции,
// поэтому два параллельных запроса на одно время не могут оба создать прием
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateAppointment: patient=%d, provider=%d, type=%d, at=%s",
		req.PatientID, req.ProviderID, req.AppointmentTypeID, req.ScheduledAt.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()
	if !req.ScheduledAt.After(now) {
		uc.logger.Warn("CreateAppointment: scheduledAt=%s is not in the future", req.ScheduledAt.Format(time.RFC3339))
		return nil, ErrInvalidSchedule
	}

	// 2. Тип приема задает длительность
	appointmentType, err := uc.appointmentTypeRepo.GetByID(ctx, req.AppointmentTypeID)
	if err != nil {
		if errors.Is(err, appointmentTypeRepo.ErrAppointmentTypeNotFound) {
			uc.logger.Warn("CreateAppointment: appointment type id=%d not found", req.AppointmentTypeID)
			return nil, ErrAppointmentTypeNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get appointment type id=%d: %v", req.AppointmentTypeID, err)
		return nil, fmt.Errorf("%w: failed to get appointment type: %v", ErrInternal, err)
	}
	if err := validateAppointmentType(appointmentType, req.IsTelemedicine); err != nil {
		uc.logger.Warn("CreateAppointment: %v", err)
		return nil, err
	}

	// 3. Врач
	provider, err := uc.providerRepo.GetByID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			uc.logger.Warn("CreateAppointment: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 4. Пациент
	patient, err := uc.patientRepo.GetByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, patientRepo.ErrPatientNotFound) {
			uc.logger.Warn("CreateAppointment: patient id=%d not found", req.PatientID)
			return nil, ErrPatientNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get patient id=%d: %v", req.PatientID, err)
		return nil, fmt.Errorf("%w: failed to get patient: %v", ErrInternal, err)
	}

	var result *domain.Appointment

	// 5. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		result = nil

		appointment := domain.NewAppointment(req.PatientID, req.ProviderID, appointmentType, req.ScheduledAt)
		appointment.ReasonForVisit = req.ReasonForVisit
		appointment.Notes = req.Notes
		appointment.IsTelemedicine = req.IsTelemedicine
		interval := appointment.Interval()
		date := localDate(req.ScheduledAt, uc.loc)

		// 5.1. Расписание врача на дату (FOR SHARE)
		schedule, err := uc.scheduleRepo.GetByProviderAndDate(txCtx, provider.ID, date)
		if err != nil {
			if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
				return fmt.Errorf("%w: provider has no schedule on %s", ErrProviderUnavailable, date.Format(domain.DateFormat))
			}
			return fmt.Errorf("%w: failed to get schedule: %w", ErrInternal, err)
		}
		if err := validateWithinSchedule(schedule, interval, uc.loc); err != nil {
			return err
		}

		// 5.2. Активные приемы врача вокруг интервала с блокировкой (FOR UPDATE)
		buffer := time.Duration(provider.BookingBufferMinutes) * time.Minute
		from := interval.Start.Add(-buffer)
		to := interval.End.Add(buffer)
		providerAppointments, err := uc.appointmentRepo.List(txCtx, domain.AppointmentsFilter{
			ProviderID: &provider.ID,
			From:       &from,
			To:         &to,
			Statuses:   domain.ActiveStatuses,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to list provider appointments: %w", ErrInternal, err)
		}
		if err := checkProviderConflicts(interval, provider.BookingBufferMinutes, providerAppointments); err != nil {
			return err
		}

		// 5.3. Пациент не может быть записан на пересекающееся время
		patientAppointments, err := uc.appointmentRepo.List(txCtx, domain.AppointmentsFilter{
			PatientID: &patient.ID,
			From:      &interval.Start,
			To:        &interval.End,
			Statuses:  domain.ActiveStatuses,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to list patient appointments: %w", ErrInternal, err)
		}
		if len(patientAppointments) > 0 {
			return fmt.Errorf("%w: patient already has appointment id=%d at this time",
				ErrSchedulingConflict, patientAppointments[0].ID)
		}

		// 5.4. Сохраняем прием, номер подтверждения генерируется заново при коллизии
		for attempt := 1; attempt <= domain.ConfirmationNumberMaxRetries; attempt++ {
			number, err := domain.NewConfirmationNumber()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInternal, err)
			}
			appointment.ConfirmationNumber = number

			created, err := uc.appointmentRepo.Create(txCtx, appointment)
			if errors.Is(err, appointmentRepo.ErrConfirmationNumberTaken) {
				uc.logger.Warn("CreateAppointment: confirmation number collision, attempt %d", attempt)
				continue
			}
			if err != nil {
				return fmt.Errorf("%w: failed to create appointment: %w", ErrInternal, err)
			}

			result = created
			return nil
		}

		return fmt.Errorf("%w: no unique confirmation number after %d attempts",
			ErrInternal, domain.ConfirmationNumberMaxRetries)
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			uc.logger.Error("CreateAppointment: %v", err)
		} else {
			uc.logger.Warn("CreateAppointment: rejected: %v", err)
		}
		return nil, err
	}

	uc.logger.Info("CreateAppointment: successfully created appointment id=%d confirmation=%s",
		result.ID, result.ConfirmationNumber)

	// 6. Побочные эффекты после коммита не влияют на результат
	if uc.availability != nil {
		uc.availability.InvalidateAt(result.ProviderID, result.ScheduledAt)
	}
	uc.publish(ctx, domain.NewAppointmentEvent(result, now))
	uc.publish(ctx, domain.NewAvailabilityEvent(result.ProviderID, localDate(result.ScheduledAt, uc.loc), now))

	return &Response{
		Appointment: result,
		Insurance:   uc.checkInsurance(ctx, patient, result),
	}, nil
}

// checkInsurance проверяет полис пациента на дату приема
// Ошибки сервиса страховой только логируются
func (uc *UseCase) checkInsurance(ctx context.Context, patient *domain.Patient, a *domain.Appointment) *InsuranceCheck {
	if uc.insuranceClient == nil || patient.PrimaryInsurer == nil || patient.InsuranceMember == nil {
		return nil
	}

	resp, err := uc.insuranceClient.VerifyEligibilityWithGracefulDegradation(ctx, insuranceservice.EligibilityRequest{
		MemberID:         *patient.InsuranceMember,
		InsuranceCompany: *patient.PrimaryInsurer,
		ServiceDate:      localDate(a.ScheduledAt, uc.loc).Format(domain.DateFormat),
	})
	if err != nil {
		uc.logger.Warn("CreateAppointment: insurance check skipped for appointment id=%d: %v", a.ID, err)
		return nil
	}

	return &InsuranceCheck{
		Eligible:    resp.Eligible,
		CopayAmount: resp.CopayAmount,
		PlanName:    resp.PlanName,
	}
}

func (uc *UseCase) publish(ctx context.Context, event domain.Event) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("CreateAppointment: failed to publish %s: %v", event.Type, err)
	}
}
