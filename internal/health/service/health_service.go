package service

import (
	"context"
	"log"
	"net/http"
	"net/url"

	healthdomain "quiz-platform/webclient/internal/health/domain"
	"quiz-platform/webclient/internal/platform/apierr"
)

const healthPath = "/"

// API is the subset of the HTTP client wrapper the service needs.
type API interface {
	Do(ctx context.Context, method, path string, body any, query url.Values, out any) error
}

// HealthService probes backend liveness.
type HealthService struct {
	api API
}

// NewHealthService returns a HealthService.
func NewHealthService(api API) *HealthService {
	return &HealthService{api: api}
}

// Check calls the liveness probe.
func (s *HealthService) Check(ctx context.Context) (healthdomain.Status, error) {
	var st healthdomain.Status
	if err := s.api.Do(ctx, http.MethodGet, healthPath, nil, nil, &st); err != nil {
		log.Printf("health: check failed: %v", err)
		return healthdomain.Status{}, err
	}
	if err := st.Validate(); err != nil {
		return healthdomain.Status{}, apierr.InvalidResponse(http.MethodGet, healthPath, err)
	}
	return st, nil
}
