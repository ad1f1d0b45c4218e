package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-placement-coach/internal/config"
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
	"github.com/fairyhunter13/ai-placement-coach/internal/feedback"
	"github.com/fairyhunter13/ai-placement-coach/internal/usecase"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Server bundles the services the HTTP layer exposes.
type Server struct {
	Cfg         config.Config
	Apps        usecase.ApplicationService
	Submissions usecase.SubmissionService
	Summaries   usecase.SummaryService
	Results     usecase.ResultService
	Questions   domain.QuestionRepository
}

// NewServer constructs a Server.
func NewServer(cfg config.Config, apps usecase.ApplicationService, subs usecase.SubmissionService, sums usecase.SummaryService, res usecase.ResultService, q domain.QuestionRepository) *Server {
	return &Server{Cfg: cfg, Apps: apps, Submissions: subs, Summaries: sums, Results: res, Questions: q}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })
	return validate
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, domain.ErrInvalidArgument)
	}
	if err := getValidator().Struct(dst); err != nil {
		return fmt.Errorf("validate body: %v: %w", err, domain.ErrInvalidArgument)
	}
	return nil
}

type createApplicationRequest struct {
	Company string `json:"company" validate:"required,oneof=TCS Wipro"`
}

type applicationResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	Company       string               `json:"company"`
	CurrentStage  string               `json:"current_stage"`
	Status        string               `json:"status"`
	FinalTrack    string               `json:"final_track,omitempty"`
	FinalDecision string               `json:"final_decision,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	Stages        []stageResultPayload `json:"stages,omitempty"`
}

type stageResultPayload struct {
	Stage        string     `json:"stage"`
	Score        int        `json:"score"`
	Total        int        `json:"total"`
	Percentage   int        `json:"percentage"`
	Passed       bool       `json:"passed"`
	TimeSpentSec int        `json:"time_spent_sec"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

func toApplicationResponse(a domain.Application) applicationResponse {
	resp := applicationResponse{
		ID:            a.ID,
		UserID:        a.UserID,
		Company:       a.Company,
		CurrentStage:  a.CurrentStage,
		Status:        a.Status,
		FinalTrack:    a.FinalTrack,
		FinalDecision: a.FinalDecision,
		CreatedAt:     a.CreatedAt,
	}
	for _, sr := range a.Stages {
		resp.Stages = append(resp.Stages, stageResultPayload{
			Stage:        sr.Stage,
			Score:        sr.Score,
			Total:        sr.Total,
			Percentage:   sr.Percentage,
			Passed:       sr.Passed,
			TimeSpentSec: sr.TimeSpentSec,
			SubmittedAt:  sr.SubmittedAt,
		})
	}
	return resp
}

// CreateApplicationHandler opens a new pipeline for the caller.
func (s *Server) CreateApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createApplicationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		app, err := s.Apps.Create(r.Context(), IdentityFrom(r), req.Company)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toApplicationResponse(app))
	}
}

// GetApplicationHandler returns one application with its stage history.
func (s *Server) GetApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		app, err := s.Apps.Get(r.Context(), IdentityFrom(r), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponse(app))
	}
}

type submitStageRequest struct {
	Answers      domain.AnswerSet `json:"answers"`
	Score        int              `json:"score" validate:"gte=0"`
	Total        int              `json:"total" validate:"gte=0"`
	TimeSpentSec int              `json:"time_spent_sec" validate:"gte=0"`
}

type submitStageResponse struct {
	IsPassed   bool                     `json:"is_passed"`
	NextStage  string                   `json:"next_stage"`
	Percentage int                      `json:"percentage"`
	Score      int                      `json:"score"`
	Total      int                      `json:"total"`
	Breakdown  domain.CategoryBreakdown `json:"category_breakdown,omitempty"`
	Status     string                   `json:"status"`
	FinalTrack string                   `json:"final_track,omitempty"`
}

// SubmitStageHandler records the stage attempt and advances or rejects the
// pipeline. A repeated submission for the same stage returns 409 and leaves
// the stored result untouched.
func (s *Server) SubmitStageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitStageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		out, err := s.Submissions.Submit(r.Context(), IdentityFrom(r), usecase.SubmitInput{
			ApplicationID: chi.URLParam(r, "id"),
			Stage:         chi.URLParam(r, "stage"),
			Answers:       req.Answers,
			Score:         req.Score,
			Total:         req.Total,
			TimeSpentSec:  req.TimeSpentSec,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, submitStageResponse{
			IsPassed:   out.IsPassed,
			NextStage:  out.NextStage,
			Percentage: out.Percentage,
			Score:      out.Score,
			Total:      out.Total,
			Breakdown:  out.Breakdown,
			Status:     out.Status,
			FinalTrack: out.FinalTrack,
		})
	}
}

type questionOptionPayload struct {
	Text    string `json:"text"`
	Correct *bool  `json:"correct,omitempty"`
}

type questionPayload struct {
	ID       string                  `json:"id"`
	Company  string                  `json:"company"`
	Stage    string                  `json:"stage"`
	Text     string                  `json:"text"`
	Category string                  `json:"category,omitempty"`
	Options  []questionOptionPayload `json:"options"`
}

func toQuestionPayload(q domain.Question, includeAnswers bool) questionPayload {
	p := questionPayload{ID: q.ID, Company: q.Company, Stage: q.Stage, Text: q.Text, Category: q.Category}
	for _, o := range q.Options {
		op := questionOptionPayload{Text: o.Text}
		if includeAnswers {
			c := o.Correct
			op.Correct = &c
		}
		p.Options = append(p.Options, op)
	}
	return p
}

// ListQuestionsHandler returns a stage's question set. Correct flags are
// stripped unless includeAnswers is set (admin route only).
func (s *Server) ListQuestionsHandler(includeAnswers bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := r.URL.Query().Get("company")
		stage := r.URL.Query().Get("stage")
		if company == "" || stage == "" {
			writeError(w, r, fmt.Errorf("company and stage query params are required: %w", domain.ErrInvalidArgument), nil)
			return
		}
		questions, err := s.Questions.ListByStage(r.Context(), company, stage)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		payload := make([]questionPayload, 0, len(questions))
		for _, q := range questions {
			payload = append(payload, toQuestionPayload(q, includeAnswers))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"questions": payload})
	}
}

type aiSummaryRequest struct {
	TestTitle      string                   `json:"test_title" validate:"required"`
	ScorePercent   int                      `json:"score_percent" validate:"gte=0,lte=100"`
	TotalQuestions int                      `json:"total_questions" validate:"gte=0"`
	Correct        int                      `json:"correct" validate:"gte=0"`
	Breakdown      domain.CategoryBreakdown `json:"category_breakdown"`
	WrongQuestions []domain.WrongQuestion   `json:"wrong_questions"`
	Format         string                   `json:"format" validate:"omitempty,oneof=json text"`
}

// AISummaryHandler produces a coaching summary. The response is always 200:
// AI failures degrade to the deterministic report.
func (s *Server) AISummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req aiSummaryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		in := feedback.Input{
			TestTitle:      req.TestTitle,
			ScorePercent:   req.ScorePercent,
			TotalQuestions: req.TotalQuestions,
			Correct:        req.Correct,
			WrongCount:     len(req.WrongQuestions),
			Breakdown:      req.Breakdown,
			WrongQuestions: req.WrongQuestions,
		}
		if req.Format == "text" {
			writeJSON(w, http.StatusOK, map[string]string{"report": s.Summaries.Report(r.Context(), in)})
			return
		}
		writeJSON(w, http.StatusOK, s.Summaries.Summarize(r.Context(), in))
	}
}

type testResultPayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TestID    string    `json:"test_id"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// ListResultsHandler returns the caller's append-only score records.
func (s *Server) ListResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		results, err := s.Results.ListForUser(r.Context(), IdentityFrom(r), userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		payload := make([]testResultPayload, 0, len(results))
		for _, tr := range results {
			payload = append(payload, testResultPayload{
				ID: tr.ID, UserID: tr.UserID, TestID: tr.TestID,
				Score: tr.Score, Total: tr.Total, CreatedAt: tr.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": payload})
	}
}

// HealthzHandler is the liveness probe.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler reports readiness based on the injected dependency checks.
func ReadyzHandler(checks map[string]func(ctx domain.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ready"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		writeJSON(w, status, body)
	}
}
