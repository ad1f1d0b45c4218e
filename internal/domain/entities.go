package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAlreadySubmitted = errors.New("stage already submitted")
	ErrUnknownCompany   = errors.New("unknown company")
	ErrUnknownStage     = errors.New("unknown stage")
	ErrAIUnavailable    = errors.New("ai unavailable")
	ErrInternal         = errors.New("internal error")
)

// Company identifiers with a configured assessment pipeline.
const (
	CompanyTCS   = "TCS"
	CompanyWipro = "Wipro"
)

// StageCompleted is the terminal pseudo-stage of every pipeline.
const StageCompleted = "completed"

// Application status values.
const (
	StatusInProgress = "in_progress"
	StatusRejected   = "rejected"
	StatusCompleted  = "completed"
)

// NotAnswered is recorded as the user answer for questions with no submission.
const NotAnswered = "Not answered"

// Option is a single answer choice. Exactly one option per question carries
// Correct=true; answers are matched by option text, not by position, so
// duplicate texts are only safe within distinct questions.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is one test item. Category may be empty and is then inferred by the
// categorizer at scoring time.
type Question struct {
	ID       string   `json:"id"`
	Company  string   `json:"company"`
	Stage    string   `json:"stage"`
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Options  []Option `json:"options"`
}

// AnswerSet maps a question id to the chosen option text.
type AnswerSet map[string]string

// CategoryStat aggregates correctness for one subject area.
type CategoryStat struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// CategoryBreakdown maps category label to its aggregate stats.
// Invariant: the per-category totals sum to the number of questions scored.
type CategoryBreakdown map[string]CategoryStat

// WrongQuestion captures one incorrectly answered question for feedback.
type WrongQuestion struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Category      string `json:"category"`
}

// StageResult is the outcome of one stage submission. SubmittedAt set means
// the result is terminal; re-submission must be rejected, never overwritten.
type StageResult struct {
	ApplicationID string
	Stage         string
	Score         int
	Total         int
	Percentage    int
	Passed        bool
	TimeSpentSec  int
	Feedback      string // serialized category breakdown + wrong-question list
	SubmittedAt   *time.Time
}

// Application is one candidate's pipeline at one company. Stage names in
// Stages follow the company's canonical order.
type Application struct {
	ID            string
	UserID        string
	Company       string
	CurrentStage  string
	Status        string
	FinalTrack    string
	FinalDecision string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Stages        []StageResult
}

// TestResult is an append-only score record keyed by (user, test).
type TestResult struct {
	ID        string
	UserID    string
	TestID    string
	Score     int
	Total     int
	CreatedAt time.Time
}

// Identity is what the external session oracle resolves a token to.
type Identity struct {
	UserID string
	Admin  bool
}

// Repositories (ports)

type ApplicationRepository interface {
	Create(ctx Context, a Application) (string, error)
	Get(ctx Context, id string) (Application, error)
	// SubmitStageAndProgress persists a terminal stage result together with
	// the resulting pipeline pointer in one atomic unit. The already-submitted
	// check, the stage insert, and the progress update commit or roll back
	// together; a second submission for the same (application, stage) returns
	// ErrAlreadySubmitted, and a failed progress write leaves the stage
	// unclaimed so the caller can retry. A non-empty track also writes the
	// terminal track, exactly once.
	SubmitStageAndProgress(ctx Context, r StageResult, currentStage, status, track, decision string) error
}

type QuestionRepository interface {
	ListByStage(ctx Context, company, stage string) ([]Question, error)
}

type ResultRepository interface {
	Append(ctx Context, r TestResult) (string, error)
	ListByUser(ctx Context, userID string) ([]TestResult, error)
}

// SessionStore is the port to the external session-scoped identity oracle.
type SessionStore interface {
	Resolve(ctx Context, token string) (Identity, error)
}

// AIClient (port)

type AIClient interface {
	// ChatJSON sends a prompt pair and returns the raw model output. Callers
	// must tolerate fenced/mixed content and fall back on any error.
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Context is an alias to context.Context so domain signatures stay compact;
// adapters and usecases pass the request context straight through.
type Context = context.Context
