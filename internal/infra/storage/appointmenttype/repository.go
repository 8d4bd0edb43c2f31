package appointmenttype

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var columns = []string{"id", "name", "duration_minutes", "telemedicine_eligible"}

// Repository справочник типов приема
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает тип приема по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.AppointmentType, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// GetByName получает тип приема по названию, при дублях берется первый по ID
func (r *Repository) GetByName(ctx context.Context, name string) (*domain.AppointmentType, error) {
	return r.getOne(ctx, "GetByName", squirrel.Eq{"name": name})
}

// List справочник типов приема по названию
func (r *Repository) List(ctx context.Context) ([]*domain.AppointmentType, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("appointment_types").
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	types := make([]*domain.AppointmentType, 0)
	for rows.Next() {
		var t domain.AppointmentType
		if err := rows.Scan(&t.ID, &t.Name, &t.DurationMinutes, &t.TelemedicineEligible); err != nil {
			return nil, fmt.Errorf("%w: List - scan appointment type: %w", ErrScanRow, err)
		}
		types = append(types, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %w", ErrScanRow, err)
	}

	return types, nil
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.AppointmentType, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("appointment_types").
		Where(where).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	var t domain.AppointmentType
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&t.ID,
		&t.Name,
		&t.DurationMinutes,
		&t.TelemedicineEligible,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan appointment type: %w", ErrScanRow, op, err)
	}

	return &t, nil
}
