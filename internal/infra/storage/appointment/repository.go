package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

const pqUniqueViolation = "23505"

var columns = []string{
	"id",
	"patient_id",
	"provider_id",
	"appointment_type_id",
	"scheduled_at",
	"ends_at",
	"status",
	"reason_for_visit",
	"notes",
	"is_telemedicine",
	"confirmation_number",
	"confirmed_at",
	"completed_at",
	"cancelled_at",
	"cancellation_reason",
	"cancelled_by",
	"reminder_sent",
	"created_at",
	"updated_at",
}

// Repository репозиторий приемов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория приемов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает прием
// Если в контексте передана активная транзакция, использует её: проверка пересечений
// и вставка должны выполняться атомарно.
// Коллизия номера подтверждения не прерывает транзакцию: ON CONFLICT DO NOTHING и ErrConfirmationNumberTaken
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	reminderSent := a.ReminderSent
	if reminderSent == nil {
		reminderSent = domain.ReminderSent{}
	}

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"patient_id",
			"provider_id",
			"appointment_type_id",
			"scheduled_at",
			"ends_at",
			"status",
			"reason_for_visit",
			"notes",
			"is_telemedicine",
			"confirmation_number",
			"reminder_sent",
		).
		Values(
			a.PatientID,
			a.ProviderID,
			a.AppointmentTypeID,
			a.ScheduledAt,
			a.EndsAt,
			a.Status,
			a.ReasonForVisit,
			a.Notes,
			a.IsTelemedicine,
			a.ConfirmationNumber,
			reminderSent,
		).
		Suffix("ON CONFLICT (confirmation_number) DO NOTHING RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConfirmationNumberTaken, a.ConfirmationNumber)
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrConfirmationNumberTaken, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	a.ReminderSent = reminderSent
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return a, nil
}

// GetByID получает прием по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("appointments").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %w", ErrScanRow, err)
	}

	return a, nil
}

// List получает приемы по фильтру, упорядоченные по времени начала
//
// Примеры использования:
//
// 1. Активные приемы врача за день (для генерации слотов):
//    filter := domain.AppointmentsFilter{ProviderID: &id, From: &dayStart, To: &dayEnd, Statuses: domain.ActiveStatuses}
//
// 2. Активные приемы пациента, пересекающие интервал:
//    filter := domain.AppointmentsFilter{PatientID: &id, From: &start, To: &end, Statuses: domain.ActiveStatuses}
//
// Внутри транзакции выбранные строки блокируются (FOR UPDATE), чтобы проверка пересечений
// и вставка нового приема были одной атомарной операцией
func (r *Repository) List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("appointments").
		OrderBy("scheduled_at ASC", "id ASC")

	if filter.ProviderID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"provider_id": *filter.ProviderID})
	}
	if filter.PatientID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"patient_id": *filter.PatientID})
	}
	// Интервалы пересекаются с [From, To), если начало раньше To и конец позже From
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"scheduled_at": *filter.To})
	}
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.Gt{"ends_at": *filter.From})
	}
	if len(filter.Statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// CountHistory считает завершенные приемы и неявки пациента
func (r *Repository) CountHistory(ctx context.Context, patientID int64) (domain.PatientHistory, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"COUNT(*) FILTER (WHERE status = 'completed')",
		"COUNT(*) FILTER (WHERE status = 'no_show')",
	).
		From("appointments").
		Where(squirrel.Eq{"patient_id": patientID}).
		ToSql()
	if err != nil {
		return domain.PatientHistory{}, fmt.Errorf("%w: CountHistory - build select query: %v", ErrBuildQuery, err)
	}

	var h domain.PatientHistory
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&h.CompletedCount, &h.NoShowCount); err != nil {
		return domain.PatientHistory{}, fmt.Errorf("%w: CountHistory - scan counts: %w", ErrScanRow, err)
	}

	return h, nil
}

// TransitionParams параметры условной смены статуса
type TransitionParams struct {
	ID                 int64
	From               domain.AppointmentStatus
	To                 domain.AppointmentStatus
	At                 time.Time
	CancellationReason *string
	CancelledBy        *string
}

// TransitionStatus меняет статус, только если прием все еще в статусе From
// Возвращает ErrStatusConflict, если строка не обновлена: прием не найден или статус уже изменен
func (r *Repository) TransitionStatus(ctx context.Context, p TransitionParams) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("appointments").
		Set("status", p.To).
		Set("updated_at", p.At).
		Where(squirrel.Eq{"id": p.ID, "status": p.From})

	switch p.To {
	case domain.StatusConfirmed:
		updateBuilder = updateBuilder.Set("confirmed_at", p.At)
	case domain.StatusCompleted:
		updateBuilder = updateBuilder.Set("completed_at", p.At)
	case domain.StatusCancelled:
		updateBuilder = updateBuilder.
			Set("cancelled_at", p.At).
			Set("cancellation_reason", p.CancellationReason).
			Set("cancelled_by", p.CancelledBy)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: TransitionStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execSingle(ctx, executor, "TransitionStatus", query, args)
}

// UpdateDetailsParams изменяемые пациентом поля приема, nil = не менять
type UpdateDetailsParams struct {
	ID             int64
	ReasonForVisit *string
	Notes          *string
	At             time.Time
}

// UpdateDetails меняет причину визита и заметки активного приема
// Возвращает ErrStatusConflict, если прием не найден или уже не активен
func (r *Repository) UpdateDetails(ctx context.Context, p UpdateDetailsParams) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("appointments").
		Set("updated_at", p.At)
	if p.ReasonForVisit != nil {
		updateBuilder = updateBuilder.Set("reason_for_visit", *p.ReasonForVisit)
	}
	if p.Notes != nil {
		updateBuilder = updateBuilder.Set("notes", *p.Notes)
	}

	query, args, err := updateBuilder.
		Where(squirrel.Eq{"id": p.ID, "status": statusStrings(domain.ActiveStatuses)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateDetails - build update query: %v", ErrBuildQuery, err)
	}

	return r.execSingle(ctx, executor, "UpdateDetails", query, args)
}

// Reassign передает отмененный прием другому пациенту и подтверждает его
// Работает только для приема в статусе cancelled, иначе ErrStatusConflict
func (r *Repository) Reassign(ctx context.Context, id, patientID int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("patient_id", patientID).
		Set("status", domain.StatusConfirmed).
		Set("confirmed_at", at).
		Set("cancelled_at", nil).
		Set("cancellation_reason", nil).
		Set("cancelled_by", nil).
		Set("reminder_sent", domain.ReminderSent{}).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "status": domain.StatusCancelled}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Reassign - build update query: %v", ErrBuildQuery, err)
	}

	return r.execSingle(ctx, executor, "Reassign", query, args)
}

// MarkReminderSent отмечает напоминание отправленным
// Возвращает false, если напоминание уже было отмечено или прием больше не подтвержден
func (r *Repository) MarkReminderSent(ctx context.Context, id int64, kind domain.ReminderKind) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("reminder_sent", squirrel.Expr("reminder_sent || jsonb_build_object(?::text, true)", string(kind))).
		Where(squirrel.Eq{"id": id, "status": domain.StatusConfirmed}).
		Where(squirrel.Expr("NOT COALESCE((reminder_sent ->> ?)::boolean, false)", string(kind))).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - get rows affected: %w", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

func (r *Repository) execSingle(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

func statusStrings(list []domain.AppointmentStatus) []string {
	statuses := make([]string, len(list))
	for i, s := range list {
		statuses[i] = string(s)
	}
	return statuses
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row scanner) (*domain.Appointment, error) {
	var a domain.Appointment
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProviderID,
		&a.AppointmentTypeID,
		&a.ScheduledAt,
		&a.EndsAt,
		&a.Status,
		&a.ReasonForVisit,
		&a.Notes,
		&a.IsTelemedicine,
		&a.ConfirmationNumber,
		&a.ConfirmedAt,
		&a.CompletedAt,
		&a.CancelledAt,
		&a.CancellationReason,
		&a.CancelledBy,
		&a.ReminderSent,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}

// scanAppointments сканирует результаты запроса в слайс приемов
func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)

	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAppointments - scan row: %w", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAppointments - rows error: %w", ErrScanRow, err)
	}

	return appointments, nil
}
