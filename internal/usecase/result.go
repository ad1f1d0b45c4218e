package usecase

import (
	"fmt"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// ResultService provides read access to the append-only result records.
type ResultService struct {
	Results domain.ResultRepository
}

// NewResultService constructs a ResultService.
func NewResultService(r domain.ResultRepository) ResultService { return ResultService{Results: r} }

// ListForUser returns userID's result records. Non-admin callers may only
// read their own records.
func (s ResultService) ListForUser(ctx domain.Context, ident domain.Identity, userID string) ([]domain.TestResult, error) {
	if userID != ident.UserID && !ident.Admin {
		return nil, fmt.Errorf("op=result.list user=%s: %w", userID, domain.ErrForbidden)
	}
	return s.Results.ListByUser(ctx, userID)
}
