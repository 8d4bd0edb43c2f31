package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var columns = []string{
	"id",
	"first_name",
	"last_name",
	"gender",
	"primary_language",
	"specialties",
	"accepted_insurances",
	"rating",
	"latitude",
	"longitude",
	"accepting_new_patients",
	"booking_buffer_minutes",
	"created_at",
	"updated_at",
}

// Repository репозиторий врачей
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория врачей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает врача по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Provider, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("providers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	p, err := scanProvider(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan provider: %w", ErrScanRow, err)
	}

	return p, nil
}

// List получает врачей по фильтру, упорядоченных по ID
// Геофильтр применяется вызывающей стороной
func (r *Repository) List(ctx context.Context, filter domain.ProviderFilter) ([]*domain.Provider, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("providers").
		OrderBy("id ASC")

	if filter.OnlyAccepting {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"accepting_new_patients": true})
	}
	if filter.Specialty != nil {
		selectBuilder = selectBuilder.Where(squirrel.Expr("? = ANY(specialties)", *filter.Specialty))
	}
	if filter.Insurer != nil {
		selectBuilder = selectBuilder.Where(squirrel.Expr("? = ANY(accepted_insurances)", *filter.Insurer))
	}
	if filter.MinRating > 0 {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"rating": filter.MinRating})
	}
	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		selectBuilder = selectBuilder.Offset(filter.Offset)
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

	providers := make([]*domain.Provider, 0)
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan provider: %w", ErrScanRow, err)
		}
		providers = append(providers, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %w", ErrScanRow, err)
	}

	return providers, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row scanner) (*domain.Provider, error) {
	var p domain.Provider
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Gender,
		&p.PrimaryLanguage,
		pq.Array(&p.Specialties),
		pq.Array(&p.AcceptedInsurances),
		&p.Rating,
		&p.Latitude,
		&p.Longitude,
		&p.AcceptingNewPatients,
		&p.BookingBufferMinutes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}
