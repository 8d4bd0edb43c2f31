package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentTypeRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointmenttype"
	providerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/provider"
	"github.com/m04kA/SMC-AppointmentService/internal/service/directory/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/geo"
)

const (
	DefaultPerPage  = 25
	MaxPerPage      = 100
	DefaultRadiusKm = 25.0
	MaxRadiusKm     = 500.0

	typesCacheKey = "appointment-types"
)

// Service справочник врачей и типов приема
type Service struct {
	providerRepo        ProviderRepository
	appointmentTypeRepo AppointmentTypeRepository
	typesCache          TypesCache
	logger              Logger
}

// NewService создает новый экземпляр справочника
func NewService(
	providerRepo ProviderRepository,
	appointmentTypeRepo AppointmentTypeRepository,
	typesCache TypesCache,
	logger Logger,
) *Service {
	return &Service{
		providerRepo:        providerRepo,
		appointmentTypeRepo: appointmentTypeRepo,
		typesCache:          typesCache,
		logger:              logger,
	}
}

// ListProviders врачи, принимающие новых пациентов, с фильтрами справочника
// Страницы нумеруются с 1. С геофильтром страница отрезается после фильтра по радиусу.
func (s *Service) ListProviders(ctx context.Context, req *models.ListProvidersRequest) (*models.ProvidersResponse, error) {
	if err := normalizeListRequest(req); err != nil {
		s.logger.Warn("ListProviders: invalid request: %v", err)
		return nil, err
	}

	filter := domain.ProviderFilter{
		Specialty:     req.Specialty,
		Insurer:       req.Insurance,
		OnlyAccepting: true,
	}
	if req.MinRating != nil {
		filter.MinRating = *req.MinRating
	}
	offset := (req.Page - 1) * req.PerPage
	geoSearch := req.Lat != nil
	if !geoSearch {
		filter.Limit = uint64(req.PerPage)
		filter.Offset = uint64(offset)
	}

	providers, err := s.providerRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListProviders: failed to list providers: %v", err)
		return nil, fmt.Errorf("%w: failed to list providers: %v", ErrInternal, err)
	}

	result := make([]models.ProviderResponse, 0, len(providers))
	if !geoSearch {
		for _, p := range providers {
			result = append(result, models.FromDomainProvider(p, nil))
		}
	} else {
		origin := geo.Point{Lat: *req.Lat, Lng: *req.Lng}
		for _, p := range providers {
			point, ok := p.Location()
			if !ok {
				continue
			}
			km := geo.DistanceKm(origin, point)
			if km > *req.RadiusKm {
				continue
			}
			result = append(result, models.FromDomainProvider(p, &km))
		}
		result = page(result, offset, req.PerPage)
	}

	s.logger.Info("ListProviders: page %d returned %d providers", req.Page, len(result))
	return &models.ProvidersResponse{Providers: result, Page: req.Page, PerPage: req.PerPage}, nil
}

// GetProvider карточка врача
func (s *Service) GetProvider(ctx context.Context, id int64) (*models.ProviderResponse, error) {
	p, err := s.providerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			s.logger.Warn("GetProvider: provider id=%d not found", id)
			return nil, ErrProviderNotFound
		}
		s.logger.Error("GetProvider: failed to get provider id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	resp := models.FromDomainProvider(p, nil)
	return &resp, nil
}

// ListAppointmentTypes справочник типов приема, кэшируется целиком
func (s *Service) ListAppointmentTypes(ctx context.Context) (*models.AppointmentTypesResponse, error) {
	types, ok := s.cachedTypes()
	if !ok {
		var err error
		types, err = s.appointmentTypeRepo.List(ctx)
		if err != nil {
			s.logger.Error("ListAppointmentTypes: failed to list appointment types: %v", err)
			return nil, fmt.Errorf("%w: failed to list appointment types: %v", ErrInternal, err)
		}
		if s.typesCache != nil {
			s.typesCache.Set(typesCacheKey, types)
		}
	}

	result := make([]models.AppointmentTypeResponse, len(types))
	for i, t := range types {
		result[i] = models.FromDomainAppointmentType(t)
	}
	return &models.AppointmentTypesResponse{AppointmentTypes: result}, nil
}

// GetAppointmentType тип приема по ID
func (s *Service) GetAppointmentType(ctx context.Context, id int64) (*models.AppointmentTypeResponse, error) {
	if types, ok := s.cachedTypes(); ok {
		for _, t := range types {
			if t.ID == id {
				resp := models.FromDomainAppointmentType(t)
				return &resp, nil
			}
		}
	}

	t, err := s.appointmentTypeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentTypeRepo.ErrAppointmentTypeNotFound) {
			s.logger.Warn("GetAppointmentType: appointment type id=%d not found", id)
			return nil, ErrAppointmentTypeNotFound
		}
		s.logger.Error("GetAppointmentType: failed to get appointment type id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get appointment type: %v", ErrInternal, err)
	}

	resp := models.FromDomainAppointmentType(t)
	return &resp, nil
}

func (s *Service) cachedTypes() ([]*domain.AppointmentType, bool) {
	if s.typesCache == nil {
		return nil, false
	}
	return s.typesCache.Get(typesCacheKey)
}

func normalizeListRequest(req *models.ListProvidersRequest) error {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Page < 0 {
		return fmt.Errorf("%w: page must be positive", ErrInvalidInput)
	}
	if req.PerPage == 0 {
		req.PerPage = DefaultPerPage
	}
	if req.PerPage < 0 || req.PerPage > MaxPerPage {
		return fmt.Errorf("%w: perPage must be between 1 and %d", ErrInvalidInput, MaxPerPage)
	}
	if req.MinRating != nil && (*req.MinRating < 0 || *req.MinRating > 5) {
		return fmt.Errorf("%w: minRating must be between 0 and 5", ErrInvalidInput)
	}

	if (req.Lat == nil) != (req.Lng == nil) {
		return fmt.Errorf("%w: lat and lng must be set together", ErrInvalidInput)
	}
	if req.Lat == nil {
		return nil
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if req.RadiusKm == nil {
		radius := DefaultRadiusKm
		req.RadiusKm = &radius
	}
	if *req.RadiusKm <= 0 || *req.RadiusKm > MaxRadiusKm {
		return fmt.Errorf("%w: radius must be between 0 and %.0f km", ErrInvalidInput, MaxRadiusKm)
	}
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
