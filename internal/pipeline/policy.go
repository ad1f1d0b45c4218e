package pipeline

import (
	"fmt"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// Policy evaluates pass/fail thresholds and stage progression against the
// configured rule tables. The zero value is unusable; construct with NewPolicy.
type Policy struct {
	tables Tables
}

// NewPolicy wraps immutable rule tables in a Policy.
func NewPolicy(t Tables) Policy { return Policy{tables: t} }

// EvaluatePass reports whether the given score passes the stage threshold.
// Unknown company/stage combinations fail closed and additionally return a
// distinguishable error so callers can surface the configuration problem
// instead of silently rejecting the candidate.
func (p Policy) EvaluatePass(company, stage string, percentage, rawScore int) (bool, error) {
	ct, ok := p.tables.Companies[company]
	if !ok {
		return false, fmt.Errorf("op=policy.EvaluatePass company=%s: %w", company, domain.ErrUnknownCompany)
	}
	th, ok := ct.Thresholds[stage]
	if !ok {
		return false, fmt.Errorf("op=policy.EvaluatePass company=%s stage=%s: %w", company, stage, domain.ErrUnknownStage)
	}
	if th.UseRaw {
		return rawScore >= th.MinRaw, nil
	}
	return percentage >= th.MinPercent, nil
}

// NextStage returns the stage the candidate moves to. A failed stage leaves
// the candidate where they are; the caller decides rejection. A passed stage
// advances along the canonical order, reaching "completed" after the last
// real stage. Unknown companies degrade to "completed" with an error.
func (p Policy) NextStage(company, currentStage string, passed bool) (string, error) {
	ct, ok := p.tables.Companies[company]
	if !ok {
		return domain.StageCompleted, fmt.Errorf("op=policy.NextStage company=%s: %w", company, domain.ErrUnknownCompany)
	}
	if !passed {
		return currentStage, nil
	}
	for i, s := range ct.Stages {
		if s != currentStage {
			continue
		}
		if i+1 < len(ct.Stages) {
			return ct.Stages[i+1], nil
		}
		return domain.StageCompleted, nil
	}
	return currentStage, fmt.Errorf("op=policy.NextStage company=%s stage=%s: %w", company, currentStage, domain.ErrUnknownStage)
}

// IsLastStage reports whether stage is the final real stage of the company's
// pipeline (or the terminal pseudo-stage itself). Unknown companies fall back
// to the fixed convention that "interview" closes every pipeline.
func (p Policy) IsLastStage(company, stage string) bool {
	if stage == domain.StageCompleted {
		return true
	}
	ct, ok := p.tables.Companies[company]
	if !ok {
		return stage == "interview"
	}
	// Stages always ends with "completed"; the last real stage precedes it.
	if len(ct.Stages) >= 2 && ct.Stages[len(ct.Stages)-2] == stage {
		return true
	}
	return false
}

// ValidStage reports whether stage appears in the company's canonical order.
func (p Policy) ValidStage(company, stage string) bool {
	ct, ok := p.tables.Companies[company]
	if !ok {
		return false
	}
	return contains(ct.Stages, stage)
}

// FirstStage returns the opening stage of a company's pipeline.
func (p Policy) FirstStage(company string) (string, error) {
	ct, ok := p.tables.Companies[company]
	if !ok {
		return "", fmt.Errorf("op=policy.FirstStage company=%s: %w", company, domain.ErrUnknownCompany)
	}
	return ct.Stages[0], nil
}
