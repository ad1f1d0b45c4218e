// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"time"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
	"github.com/fairyhunter13/ai-placement-coach/internal/pipeline"
)

// ApplicationService manages candidate pipelines.
type ApplicationService struct {
	Apps   domain.ApplicationRepository
	Policy pipeline.Policy
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(a domain.ApplicationRepository, p pipeline.Policy) ApplicationService {
	return ApplicationService{Apps: a, Policy: p}
}

// Create opens a new pipeline for the caller at the given company, starting
// at the company's first stage.
func (s ApplicationService) Create(ctx domain.Context, ident domain.Identity, company string) (domain.Application, error) {
	first, err := s.Policy.FirstStage(company)
	if err != nil {
		return domain.Application{}, err
	}
	a := domain.Application{
		UserID:       ident.UserID,
		Company:      company,
		CurrentStage: first,
		Status:       domain.StatusInProgress,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	id, err := s.Apps.Create(ctx, a)
	if err != nil {
		return domain.Application{}, err
	}
	a.ID = id
	return a, nil
}

// Get returns an application, enforcing ownership: only the owner or an
// administrator may read it.
func (s ApplicationService) Get(ctx domain.Context, ident domain.Identity, id string) (domain.Application, error) {
	a, err := s.Apps.Get(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}
	if a.UserID != ident.UserID && !ident.Admin {
		return domain.Application{}, fmt.Errorf("op=application.get id=%s: %w", id, domain.ErrForbidden)
	}
	return a, nil
}
