package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-placement-coach/internal/config"
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
	"github.com/fairyhunter13/ai-placement-coach/internal/feedback"
	"github.com/fairyhunter13/ai-placement-coach/internal/pipeline"
	"github.com/fairyhunter13/ai-placement-coach/internal/usecase"
)

type memAppRepo struct {
	apps   map[string]*domain.Application
	stages map[string]domain.StageResult
	nextID int
}

func newMemAppRepo() *memAppRepo {
	return &memAppRepo{apps: map[string]*domain.Application{}, stages: map[string]domain.StageResult{}}
}

func (m *memAppRepo) Create(_ domain.Context, a domain.Application) (string, error) {
	m.nextID++
	id := fmt.Sprintf("app-%d", m.nextID)
	a.ID = id
	m.apps[id] = &a
	return id, nil
}

func (m *memAppRepo) Get(_ domain.Context, id string) (domain.Application, error) {
	a, ok := m.apps[id]
	if !ok {
		return domain.Application{}, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	cp := *a
	cp.Stages = append([]domain.StageResult(nil), a.Stages...)
	return cp, nil
}

func (m *memAppRepo) SubmitStageAndProgress(_ domain.Context, sr domain.StageResult, currentStage, status, track, decision string) error {
	key := sr.ApplicationID + "/" + sr.Stage
	if _, exists := m.stages[key]; exists {
		return fmt.Errorf("submit: %w", domain.ErrAlreadySubmitted)
	}
	a, ok := m.apps[sr.ApplicationID]
	if !ok {
		return domain.ErrNotFound
	}
	m.stages[key] = sr
	a.Stages = append(a.Stages, sr)
	a.CurrentStage = currentStage
	a.Status = status
	if track != "" {
		a.FinalTrack = track
		a.FinalDecision = decision
	}
	return nil
}

type memQuestionRepo struct {
	byStage map[string][]domain.Question
}

func (m *memQuestionRepo) ListByStage(_ domain.Context, company, stage string) ([]domain.Question, error) {
	return m.byStage[company+"/"+stage], nil
}

type memResultRepo struct {
	rows []domain.TestResult
}

func (m *memResultRepo) Append(_ domain.Context, r domain.TestResult) (string, error) {
	r.ID = fmt.Sprintf("res-%d", len(m.rows)+1)
	r.CreatedAt = time.Now().UTC()
	m.rows = append(m.rows, r)
	return r.ID, nil
}

func (m *memResultRepo) ListByUser(_ domain.Context, userID string) ([]domain.TestResult, error) {
	var out []domain.TestResult
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memSessions struct {
	byToken map[string]domain.Identity
}

func (m *memSessions) Resolve(_ domain.Context, token string) (domain.Identity, error) {
	ident, ok := m.byToken[token]
	if !ok {
		return domain.Identity{}, fmt.Errorf("resolve: %w", domain.ErrUnauthorized)
	}
	return ident, nil
}

type testEnv struct {
	router    http.Handler
	apps      *memAppRepo
	questions *memQuestionRepo
	results   *memResultRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	apps := newMemAppRepo()
	questions := &memQuestionRepo{byStage: map[string][]domain.Question{}}
	results := &memResultRepo{}
	policy := pipeline.NewPolicy(pipeline.DefaultTables())
	builder := feedback.NewBuilder(nil, 0, 0)

	srv := NewServer(config.Config{},
		usecase.NewApplicationService(apps, policy),
		usecase.NewSubmissionService(apps, questions, results, policy),
		usecase.NewSummaryService(builder),
		usecase.NewResultService(results),
		questions,
	)

	sessions := &memSessions{byToken: map[string]domain.Identity{
		"tok-u1":    {UserID: "u1"},
		"tok-u2":    {UserID: "u2"},
		"tok-admin": {UserID: "ops", Admin: true},
	}}

	r := chi.NewRouter()
	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(pr chi.Router) {
			pr.Use(SessionAuth(sessions))
			pr.Post("/applications", srv.CreateApplicationHandler())
			pr.Get("/applications/{id}", srv.GetApplicationHandler())
			pr.Post("/applications/{id}/stages/{stage}/submit", srv.SubmitStageHandler())
			pr.Get("/questions", srv.ListQuestionsHandler(false))
			pr.Get("/results/{user_id}", srv.ListResultsHandler())
			pr.Post("/ai/summary", srv.AISummaryHandler())
		})
	})

	return &testEnv{router: r, apps: apps, questions: questions, results: results}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestCreateApplicationEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/applications", "tok-u1", `{"company":"TCS"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp applicationResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "foundation", resp.CurrentStage)
	assert.Equal(t, "in_progress", resp.Status)
}

func TestCreateApplicationValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/applications", "tok-u1", `{"company":"Infosys"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/applications", "tok-u1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/applications", "tok-u1", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/applications", "", `{"company":"TCS"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/applications", "bogus", `{"company":"TCS"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var envlp errorEnvelope
	decodeBody(t, rec, &envlp)
	assert.Equal(t, "UNAUTHORIZED", envlp.Error.Code)
}

func TestGetApplicationOwnership(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/applications", "tok-u1", `{"company":"Wipro"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created applicationResponse
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodGet, "/v1/applications/"+created.ID, "tok-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/applications/"+created.ID, "tok-admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/applications/missing", "tok-u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitStageEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.questions.byStage["TCS/foundation"] = []domain.Question{
		{ID: "q1", Text: "2+2?", Category: "Quantitative Aptitude", Options: []domain.Option{{Text: "4", Correct: true}, {Text: "5"}}},
		{ID: "q2", Text: "3+3?", Category: "Quantitative Aptitude", Options: []domain.Option{{Text: "6", Correct: true}, {Text: "7"}}},
	}

	rec := env.do(t, http.MethodPost, "/v1/applications", "tok-u1", `{"company":"TCS"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created applicationResponse
	decodeBody(t, rec, &created)

	url := "/v1/applications/" + created.ID + "/stages/foundation/submit"
	rec = env.do(t, http.MethodPost, url, "tok-u1", `{"answers":{"q1":"4","q2":"6"},"time_spent_sec":120}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out submitStageResponse
	decodeBody(t, rec, &out)
	assert.True(t, out.IsPassed)
	assert.Equal(t, 100, out.Percentage)
	assert.Equal(t, "advanced", out.NextStage)
	assert.Equal(t, "in_progress", out.Status)

	// Replay against the same stage conflicts.
	env.apps.apps[created.ID].CurrentStage = "foundation"
	rec = env.do(t, http.MethodPost, url, "tok-u1", `{"answers":{"q1":"4","q2":"6"}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitStageForbiddenForOtherUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/applications", "tok-u2", `{"company":"TCS"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created applicationResponse
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodPost, "/v1/applications/"+created.ID+"/stages/foundation/submit", "tok-u1", `{"answers":{}}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var envlp errorEnvelope
	decodeBody(t, rec, &envlp)
	assert.Equal(t, "FORBIDDEN", envlp.Error.Code)
}

func TestListQuestionsStripsAnswers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.questions.byStage["TCS/foundation"] = []domain.Question{
		{ID: "q1", Company: "TCS", Stage: "foundation", Text: "2+2?", Options: []domain.Option{{Text: "4", Correct: true}, {Text: "5"}}},
	}

	rec := env.do(t, http.MethodGet, "/v1/questions?company=TCS&stage=foundation", "tok-u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correct")

	rec = env.do(t, http.MethodGet, "/v1/questions?company=TCS", "tok-u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListQuestionsAdminIncludesAnswers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.questions.byStage["TCS/foundation"] = []domain.Question{
		{ID: "q1", Text: "2+2?", Options: []domain.Option{{Text: "4", Correct: true}}},
	}
	// Exercise the handler directly with answers enabled, as mounted on the
	// admin route.
	srv := &Server{Questions: env.questions}
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/questions?company=TCS&stage=foundation", nil)
	rec := httptest.NewRecorder()
	srv.ListQuestionsHandler(true)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"correct":true`)
}

func TestAISummaryEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body := `{"test_title":"TCS Foundation","score_percent":50,"total_questions":10,"correct":5,
		"wrong_questions":[{"question":"q","user_answer":"a","correct_answer":"b","category":"Logical Reasoning"}]}`
	rec := env.do(t, http.MethodPost, "/v1/ai/summary", "tok-u1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s feedback.Summary
	decodeBody(t, rec, &s)
	assert.NotEmpty(t, s.Overall)
	assert.NotEmpty(t, s.StudyPlan)

	rec = env.do(t, http.MethodPost, "/v1/ai/summary", "tok-u1", `{"test_title":"T","format":"text"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var txt map[string]string
	decodeBody(t, rec, &txt)
	assert.Contains(t, txt["report"], "Performance Report")
}

func TestListResultsEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, err := env.results.Append(context.Background(), domain.TestResult{UserID: "u1", TestID: "TCS-foundation", Score: 7, Total: 10})
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/v1/results/u1", "tok-u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TCS-foundation")

	rec = env.do(t, http.MethodGet, "/v1/results/u1", "tok-admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/results/other", "tok-u1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthzAndReadyz(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	HealthzHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	checks := map[string]func(ctx domain.Context) error{
		"postgres": func(domain.Context) error { return nil },
		"redis":    func(domain.Context) error { return fmt.Errorf("connection refused") },
	}
	rec = httptest.NewRecorder()
	ReadyzHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")

	checks["redis"] = func(domain.Context) error { return nil }
	rec = httptest.NewRecorder()
	ReadyzHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
