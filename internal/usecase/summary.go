package usecase

import (
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
	"github.com/fairyhunter13/ai-placement-coach/internal/feedback"
)

// SummaryService produces coaching summaries. It never returns an error: the
// feedback builder degrades to its deterministic path on any AI failure.
type SummaryService struct {
	Builder *feedback.Builder
}

// NewSummaryService constructs a SummaryService.
func NewSummaryService(b *feedback.Builder) SummaryService { return SummaryService{Builder: b} }

// Summarize returns the structured coaching report.
func (s SummaryService) Summarize(ctx domain.Context, in feedback.Input) feedback.Summary {
	return s.Builder.BuildJSON(ctx, in)
}

// Report returns the free-text coaching report.
func (s SummaryService) Report(ctx domain.Context, in feedback.Input) string {
	return s.Builder.BuildText(ctx, in)
}
