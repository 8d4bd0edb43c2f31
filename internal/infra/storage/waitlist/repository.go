package waitlist

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

var columns = []string{
	"id",
	"patient_id",
	"provider_id",
	"appointment_type_id",
	"preferred_date_start",
	"preferred_date_end",
	"preferred_time_of_day",
	"priority",
	"status",
	"notified_at",
	"expires_at",
	"offered_appointment_id",
	"notes",
	"metadata",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий листа ожидания
//
// Все изменения статуса условные: WHERE id = ? AND status = ? AND version = ?
// Проигравший в гонке получает ErrVersionConflict и ничего не меняет
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория листа ожидания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет запись в лист ожидания
func (r *Repository) Create(ctx context.Context, e *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	metadata := e.Metadata
	if metadata == nil {
		metadata = domain.WaitlistMetadata{}
	}

	query, args, err := psqlbuilder.Insert("waitlist_entries").
		Columns(
			"patient_id",
			"provider_id",
			"appointment_type_id",
			"preferred_date_start",
			"preferred_date_end",
			"preferred_time_of_day",
			"priority",
			"status",
			"notes",
			"metadata",
		).
		Values(
			e.PatientID,
			e.ProviderID,
			e.AppointmentTypeID,
			e.PreferredDateStart.Format(domain.DateFormat),
			e.PreferredDateEnd.Format(domain.DateFormat),
			pq.Array(timesOfDayToStrings(e.PreferredTimeOfDay)),
			e.Priority,
			e.Status,
			e.Notes,
			metadata,
		).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	e.Metadata = metadata
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return e, nil
}

// GetByID получает запись по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	e, err := scanEntry(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan entry: %w", ErrScanRow, err)
	}

	return e, nil
}

// ListCandidates получает претендентов на освободившийся слот
// Порядок: приоритет по убыванию, затем время создания по возрастанию (FIFO)
func (r *Repository) ListCandidates(ctx context.Context, filter domain.WaitlistCandidatesFilter) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("waitlist_entries").
		Where(candidatesWhere(filter)).
		OrderBy("priority DESC", "created_at ASC", "id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListCandidates - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListCandidates", query, args)
}

// GetOutstandingOffer получает действующее предложение по освободившемуся приему
// Возвращает ErrEntryNotFound, если предложения нет
func (r *Repository) GetOutstandingOffer(ctx context.Context, appointmentID int64) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"offered_appointment_id": appointmentID, "status": domain.WaitlistNotified}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOutstandingOffer - build select query: %v", ErrBuildQuery, err)
	}

	e, err := scanEntry(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetOutstandingOffer - scan entry: %w", ErrScanRow, err)
	}

	return e, nil
}

// ListNotified получает все действующие предложения, например для восстановления таймеров при старте
func (r *Repository) ListNotified(ctx context.Context) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"status": domain.WaitlistNotified}).
		OrderBy("expires_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListNotified - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListNotified", query, args)
}

// MarkNotified переводит запись active -> notified с предложением приема
func (r *Repository) MarkNotified(ctx context.Context, id, version, appointmentID int64, notifiedAt, expiresAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("waitlist_entries").
		Set("status", domain.WaitlistNotified).
		Set("notified_at", notifiedAt).
		Set("expires_at", expiresAt).
		Set("offered_appointment_id", appointmentID).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", notifiedAt).
		Where(squirrel.Eq{"id": id, "status": domain.WaitlistActive, "version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkNotified - build update query: %v", ErrBuildQuery, err)
	}

	return r.execCAS(ctx, executor, "MarkNotified", query, args)
}

// CompareAndSetStatus меняет статус, только если запись в статусе from и с версией version
func (r *Repository) CompareAndSetStatus(ctx context.Context, id, version int64, from, to domain.WaitlistStatus, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("waitlist_entries").
		Set("status", to).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "status": from, "version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: CompareAndSetStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execCAS(ctx, executor, "CompareAndSetStatus", query, args)
}

// ExpireCompetitors переводит в expired все остальные записи, претендовавшие на тот же слот
// Записи с предложением по другому приему не затрагиваются, если задан OfferedAppointmentID
// Возвращает ID измененных записей
func (r *Repository) ExpireCompetitors(ctx context.Context, filter domain.WaitlistCandidatesFilter, at time.Time) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("waitlist_entries").
		Set("status", domain.WaitlistExpired).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", at).
		Where(candidatesWhere(filter)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ExpireCompetitors - build update query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ExpireCompetitors - execute update: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ExpireCompetitors - scan id: %w", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ExpireCompetitors - rows error: %w", ErrScanRow, err)
	}

	return ids, nil
}

// UpdatePriority сохраняет пересчитанный приоритет
func (r *Repository) UpdatePriority(ctx context.Context, id int64, priority int, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("waitlist_entries").
		Set("priority", priority).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdatePriority - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdatePriority - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdatePriority - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func candidatesWhere(filter domain.WaitlistCandidatesFilter) squirrel.And {
	date := filter.Date.Format(domain.DateFormat)

	where := squirrel.And{
		squirrel.Eq{"provider_id": filter.ProviderID},
		squirrel.Eq{"appointment_type_id": filter.AppointmentTypeID},
		squirrel.LtOrEq{"preferred_date_start": date},
		squirrel.GtOrEq{"preferred_date_end": date},
		squirrel.Expr("? = ANY(preferred_time_of_day)", string(filter.SlotType)),
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, squirrel.Eq{"status": statuses})
	}
	if filter.ExcludeID != nil {
		where = append(where, squirrel.NotEq{"id": *filter.ExcludeID})
	}
	if filter.OfferedAppointmentID != nil {
		where = append(where, squirrel.Or{
			squirrel.NotEq{"status": string(domain.WaitlistNotified)},
			squirrel.Eq{"offered_appointment_id": *filter.OfferedAppointmentID},
		})
	}

	return where
}

func (r *Repository) query(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) ([]*domain.WaitlistEntry, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan entry: %w", ErrScanRow, op, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, op, err)
	}

	return entries, nil
}

func (r *Repository) execCAS(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*domain.WaitlistEntry, error) {
	var e domain.WaitlistEntry
	var timesOfDay []string
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.PatientID,
		&e.ProviderID,
		&e.AppointmentTypeID,
		&e.PreferredDateStart,
		&e.PreferredDateEnd,
		pq.Array(&timesOfDay),
		&e.Priority,
		&e.Status,
		&e.NotifiedAt,
		&e.ExpiresAt,
		&e.OfferedAppointmentID,
		&e.Notes,
		&e.Metadata,
		&e.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.PreferredTimeOfDay = make([]domain.TimeOfDay, len(timesOfDay))
	for i, t := range timesOfDay {
		e.PreferredTimeOfDay[i] = domain.TimeOfDay(t)
	}
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return &e, nil
}

func timesOfDayToStrings(values []domain.TimeOfDay) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
