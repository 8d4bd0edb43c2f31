package patient

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

// Repository репозиторий пациентов
// Читает только немедицинские поля и основной страховой полис
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает пациента вместе с основным полисом
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Patient, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"p.id",
		"p.date_of_birth",
		"p.gender",
		"p.primary_language",
		"p.latitude",
		"p.longitude",
		"p.phone",
		"p.email",
		"ip.insurance_company",
		"ip.member_id",
		"p.created_at",
		"p.updated_at",
	).
		From("patients p").
		LeftJoin("insurance_plans ip ON ip.patient_id = p.id AND ip.is_primary").
		Where(squirrel.Eq{"p.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.Patient
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.DateOfBirth,
		&p.Gender,
		&p.PrimaryLanguage,
		&p.Latitude,
		&p.Longitude,
		&p.Phone,
		&p.Email,
		&p.PrimaryInsurer,
		&p.InsuranceMember,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan patient: %w", ErrScanRow, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}
