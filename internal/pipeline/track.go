package pipeline

import (
	"fmt"
	"math"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// TrackStandard is assigned when no company rule applies.
const TrackStandard = "Standard"

// AssignTrack computes the final placement track for a completed pipeline.
// It must be called exactly once, after the last stage passed; at that point
// every configured rule resolves to a real track, never a rejection, so band
// misses fall through to the company's default track. Unknown companies get
// TrackStandard plus a distinguishable error.
func (p Policy) AssignTrack(company string, stages []domain.StageResult) (string, error) {
	ct, ok := p.tables.Companies[company]
	if !ok {
		return TrackStandard, fmt.Errorf("op=policy.AssignTrack company=%s: %w", company, domain.ErrUnknownCompany)
	}
	rule := ct.Track

	var pct int
	switch rule.Basis {
	case "stage":
		found := false
		for _, sr := range stages {
			if sr.Stage == rule.Stage {
				pct = sr.Percentage
				found = true
				break
			}
		}
		if !found {
			// The basis stage was never recorded; the default track is the
			// only safe answer this late in the pipeline.
			return rule.DefaultTrack, nil
		}
	case "average":
		if len(stages) == 0 {
			return rule.DefaultTrack, nil
		}
		sum := 0
		for _, sr := range stages {
			sum += sr.Percentage
		}
		pct = int(math.Round(float64(sum) / float64(len(stages))))
	default:
		return TrackStandard, fmt.Errorf("op=policy.AssignTrack company=%s basis=%s: %w", company, rule.Basis, domain.ErrInternal)
	}

	for _, band := range rule.Bands {
		if pct >= band.Min {
			return band.Track, nil
		}
	}
	return rule.DefaultTrack, nil
}
