package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
	"github.com/fairyhunter13/ai-placement-coach/internal/pipeline"
	"github.com/fairyhunter13/ai-placement-coach/internal/scoring"
)

// SubmissionService orchestrates one stage submission end to end: scoring,
// policy, progression, track assignment, and the append-only result record.
type SubmissionService struct {
	Apps      domain.ApplicationRepository
	Questions domain.QuestionRepository
	Results   domain.ResultRepository
	Policy    pipeline.Policy
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(a domain.ApplicationRepository, q domain.QuestionRepository, r domain.ResultRepository, p pipeline.Policy) SubmissionService {
	return SubmissionService{Apps: a, Questions: q, Results: r, Policy: p}
}

// SubmitInput is one stage submission. Score and Total are only consulted for
// stages without a stored question set (coding stages judged externally);
// otherwise the evaluator recomputes them from Answers.
type SubmitInput struct {
	ApplicationID string
	Stage         string
	Answers       domain.AnswerSet
	Score         int
	Total         int
	TimeSpentSec  int
}

// SubmitOutput mirrors the stage-submission response contract.
type SubmitOutput struct {
	IsPassed   bool
	NextStage  string
	Percentage int
	Score      int
	Total      int
	Breakdown  domain.CategoryBreakdown
	Status     string
	FinalTrack string
}

// feedbackPayload is the opaque per-stage feedback blob stored alongside the
// stage result.
type feedbackPayload struct {
	CategoryBreakdown domain.CategoryBreakdown `json:"category_breakdown"`
	WrongQuestions    []domain.WrongQuestion   `json:"wrong_questions"`
}

// Submit runs the full submission flow. A stage with a submission timestamp
// is immutable: the repository's atomic insert rejects re-submission with
// ErrAlreadySubmitted and the stored result is left untouched.
func (s SubmissionService) Submit(ctx domain.Context, ident domain.Identity, in SubmitInput) (SubmitOutput, error) {
	app, err := s.Apps.Get(ctx, in.ApplicationID)
	if err != nil {
		return SubmitOutput{}, err
	}
	if app.UserID != ident.UserID && !ident.Admin {
		return SubmitOutput{}, fmt.Errorf("op=submit app=%s: %w", in.ApplicationID, domain.ErrForbidden)
	}
	if !s.Policy.ValidStage(app.Company, in.Stage) {
		return SubmitOutput{}, fmt.Errorf("op=submit company=%s stage=%s: %w", app.Company, in.Stage, domain.ErrUnknownStage)
	}
	if app.Status != domain.StatusInProgress {
		return SubmitOutput{}, fmt.Errorf("op=submit app=%s status=%s: %w", in.ApplicationID, app.Status, domain.ErrInvalidArgument)
	}
	if in.Stage != app.CurrentStage {
		return SubmitOutput{}, fmt.Errorf("op=submit app=%s: stage %s is not the current stage %s: %w", in.ApplicationID, in.Stage, app.CurrentStage, domain.ErrInvalidArgument)
	}

	questions, err := s.Questions.ListByStage(ctx, app.Company, in.Stage)
	if err != nil {
		return SubmitOutput{}, err
	}

	score, total := in.Score, in.Total
	var breakdown domain.CategoryBreakdown
	var wrong []domain.WrongQuestion
	if len(questions) > 0 {
		ev := scoring.Evaluate(questions, in.Answers)
		score, total = ev.TotalCorrect, ev.TotalQuestions
		breakdown, wrong = ev.Breakdown, ev.Wrong
	}
	percentage := scoring.RoundPercent(score, total)

	passed, err := s.Policy.EvaluatePass(app.Company, in.Stage, percentage, score)
	if err != nil {
		// Fail closed and surface the configuration problem.
		return SubmitOutput{}, err
	}
	next, err := s.Policy.NextStage(app.Company, in.Stage, passed)
	if err != nil {
		return SubmitOutput{}, err
	}

	payload, _ := json.Marshal(feedbackPayload{CategoryBreakdown: breakdown, WrongQuestions: wrong})
	now := time.Now().UTC()
	sr := domain.StageResult{
		ApplicationID: app.ID,
		Stage:         in.Stage,
		Score:         score,
		Total:         total,
		Percentage:    percentage,
		Passed:        passed,
		TimeSpentSec:  in.TimeSpentSec,
		Feedback:      string(payload),
		SubmittedAt:   &now,
	}

	out := SubmitOutput{
		IsPassed:   passed,
		NextStage:  next,
		Percentage: percentage,
		Score:      score,
		Total:      total,
		Breakdown:  breakdown,
	}

	// The stage claim and the progress/track writes commit as one unit: a
	// failure rolls everything back so the same submission can be retried.
	outcome := "pass"
	switch {
	case !passed:
		out.Status = domain.StatusRejected
		outcome = "fail"
		if err := s.Apps.SubmitStageAndProgress(ctx, sr, in.Stage, domain.StatusRejected, "", ""); err != nil {
			return SubmitOutput{}, err
		}
	case s.Policy.IsLastStage(app.Company, in.Stage):
		track, terr := s.Policy.AssignTrack(app.Company, append(app.Stages, sr))
		if terr != nil {
			slog.Warn("track assignment degraded", slog.String("company", app.Company), slog.Any("error", terr))
		}
		if err := s.Apps.SubmitStageAndProgress(ctx, sr, domain.StageCompleted, domain.StatusCompleted, track, "selected"); err != nil {
			return SubmitOutput{}, err
		}
		out.Status = domain.StatusCompleted
		out.FinalTrack = track
		observability.TracksAssignedTotal.WithLabelValues(app.Company, track).Inc()
	default:
		out.Status = domain.StatusInProgress
		if err := s.Apps.SubmitStageAndProgress(ctx, sr, next, domain.StatusInProgress, "", ""); err != nil {
			return SubmitOutput{}, err
		}
	}
	observability.SubmissionsTotal.WithLabelValues(app.Company, in.Stage, outcome).Inc()
	observability.StagePercentage.WithLabelValues(app.Company, in.Stage).Observe(float64(percentage))

	testID := fmt.Sprintf("%s-%s", app.Company, in.Stage)
	if _, err := s.Results.Append(ctx, domain.TestResult{UserID: app.UserID, TestID: testID, Score: score, Total: total}); err != nil {
		// The stage result is already durable; losing the audit record is
		// logged but does not fail the submission.
		slog.Error("result append failed", slog.String("test_id", testID), slog.Any("error", err))
	}

	return out, nil
}
