package list_providers

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-AppointmentService/internal/service/directory/models"
)

// ParseQuery формирует запрос к справочнику из query параметров, пустой параметр не фильтрует
func ParseQuery(q url.Values) (*models.ListProvidersRequest, error) {
	req := &models.ListProvidersRequest{}

	if v := q.Get("specialty"); v != "" {
		req.Specialty = &v
	}
	if v := q.Get("insurance"); v != "" {
		req.Insurance = &v
	}

	floats := []struct {
		name string
		dst  **float64
	}{
		{"lat", &req.Lat},
		{"lng", &req.Lng},
		{"radiusKm", &req.RadiusKm},
		{"minRating", &req.MinRating},
	}
	for _, f := range floats {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = &v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"page", &req.Page},
		{"perPage", &req.PerPage},
	}
	for _, i := range ints {
		raw := q.Get(i.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", i.name, err)
		}
		*i.dst = v
	}

	return req, nil
}
