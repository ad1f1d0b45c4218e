// Package feedback assembles coaching summaries for a scored submission.
//
// The primary path delegates to the external AI collaborator; every failure
// of that collaborator (absent client, transport error, unparseable output)
// degrades to a deterministic local summary. Callers never see an AI error.
package feedback

import (
	"encoding/json"
	"log/slog"

	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// Input carries the statistics a summary is generated from.
type Input struct {
	TestTitle      string
	ScorePercent   int
	TotalQuestions int
	Correct        int
	WrongCount     int
	Breakdown      domain.CategoryBreakdown
	WrongQuestions []domain.WrongQuestion
}

// Summary is the structured coaching report returned by the JSON entry point.
type Summary struct {
	Overall    string   `json:"overall"`
	Strengths  []string `json:"strengths"`
	FocusAreas []string `json:"focus_areas"`
	StudyPlan  string   `json:"study_plan"`
}

// Builder produces summaries. AI may be nil; the builder then always uses the
// deterministic path.
type Builder struct {
	AI           domain.AIClient
	MaxTokens    int
	PromptBudget int
}

// NewBuilder constructs a Builder with the given AI client and token limits.
func NewBuilder(ai domain.AIClient, maxTokens, promptBudget int) *Builder {
	if maxTokens <= 0 {
		maxTokens = 800
	}
	if promptBudget <= 0 {
		promptBudget = 6000
	}
	return &Builder{AI: ai, MaxTokens: maxTokens, PromptBudget: promptBudget}
}

// BuildJSON returns a structured summary. The AI response must clean up to a
// strict JSON object with a non-empty overall section; anything else falls
// back deterministically.
func (b *Builder) BuildJSON(ctx domain.Context, in Input) Summary {
	raw, ok := b.callAI(ctx, in, jsonSystemPrompt)
	if !ok {
		return b.fallbackSummary(ctx, in)
	}
	cleaned, ok := ExtractJSONObject(raw)
	if !ok {
		observability.FeedbackFallbacksTotal.WithLabelValues("unparseable").Inc()
		slog.Warn("ai summary not parseable, using fallback", slog.Int("raw_len", len(raw)))
		return b.fallbackSummary(ctx, in)
	}
	var s Summary
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil || s.Overall == "" {
		observability.FeedbackFallbacksTotal.WithLabelValues("schema").Inc()
		slog.Warn("ai summary failed schema, using fallback", slog.Any("error", err))
		return b.fallbackSummary(ctx, in)
	}
	return s
}

// BuildText returns a free-text coaching report. AI output is used verbatim
// when non-empty; otherwise the deterministic report is emitted.
func (b *Builder) BuildText(ctx domain.Context, in Input) string {
	raw, ok := b.callAI(ctx, in, textSystemPrompt)
	if ok && raw != "" {
		return raw
	}
	return FallbackReport(in)
}

// callAI runs the prompt against the collaborator, swallowing every failure.
func (b *Builder) callAI(ctx domain.Context, in Input, systemPrompt string) (string, bool) {
	if b.AI == nil {
		observability.FeedbackFallbacksTotal.WithLabelValues("no_client").Inc()
		return "", false
	}
	prompt := BuildPrompt(in, b.PromptBudget)
	raw, err := b.AI.ChatJSON(ctx, systemPrompt, prompt, b.MaxTokens)
	if err != nil {
		observability.FeedbackFallbacksTotal.WithLabelValues("ai_error").Inc()
		slog.Warn("ai collaborator failed, using fallback", slog.Any("error", err))
		return "", false
	}
	return raw, true
}

// fallbackSummary maps the deterministic report onto the structured shape.
func (b *Builder) fallbackSummary(_ domain.Context, in Input) Summary {
	stats := FallbackStats(in)
	s := Summary{
		Overall:   overallSentence(in.ScorePercent),
		StudyPlan: studyRecommendation(in.ScorePercent),
	}
	for _, cs := range stats {
		line := cs.Category
		if cs.Accuracy >= bandStrong {
			s.Strengths = append(s.Strengths, line)
		} else {
			s.FocusAreas = append(s.FocusAreas, line)
		}
	}
	return s
}
