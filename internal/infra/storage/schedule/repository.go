package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var columns = []string{
	"id",
	"provider_id",
	"date",
	"start_time",
	"end_time",
	"slot_duration_minutes",
	"is_available",
	"notes",
	"created_at",
	"updated_at",
}

// Repository репозиторий расписаний врачей
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByProviderAndDate получает расписание врача на дату
func (r *Repository) GetByProviderAndDate(ctx context.Context, providerID int64, date time.Time) (*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("provider_schedules").
		Where(squirrel.Eq{"provider_id": providerID, "date": date.Format(domain.DateFormat)})

	// Внутри транзакции создания приема расписание блокируется до коммита
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR SHARE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderAndDate - build select query: %v", ErrBuildQuery, err)
	}

	s, err := scanSchedule(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderAndDate - scan schedule: %w", ErrScanRow, err)
	}

	return s, nil
}

// ListByProviderAndRange получает расписания врача за период [from, to] включительно, по возрастанию даты
func (r *Repository) ListByProviderAndRange(ctx context.Context, providerID int64, from, to time.Time) ([]*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("provider_schedules").
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.GtOrEq{"date": from.Format(domain.DateFormat)}).
		Where(squirrel.LtOrEq{"date": to.Format(domain.DateFormat)}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByProviderAndRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByProviderAndRange - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	schedules := make([]*domain.ProviderSchedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByProviderAndRange - scan schedule: %w", ErrScanRow, err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByProviderAndRange - rows error: %w", ErrScanRow, err)
	}

	return schedules, nil
}

// Upsert создает или заменяет расписание врача на дату
// Уникальность (provider_id, date) обеспечивает ограничение в БД
func (r *Repository) Upsert(ctx context.Context, s *domain.ProviderSchedule) (*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("provider_schedules").
		Columns(
			"provider_id",
			"date",
			"start_time",
			"end_time",
			"slot_duration_minutes",
			"is_available",
			"notes",
		).
		Values(
			s.ProviderID,
			s.Date.Format(domain.DateFormat),
			s.StartTime,
			s.EndTime,
			s.SlotDurationMinutes,
			s.IsAvailable,
			s.Notes,
		).
		Suffix(`ON CONFLICT (provider_id, date) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			slot_duration_minutes = EXCLUDED.slot_duration_minutes,
			is_available = EXCLUDED.is_available,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %w", ErrExecQuery, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return s, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row scanner) (*domain.ProviderSchedule, error) {
	var s domain.ProviderSchedule
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.ProviderID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.SlotDurationMinutes,
		&s.IsAvailable,
		&s.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}
