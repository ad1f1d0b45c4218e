package postgres

import (
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// QuestionRepo loads the authoritative question sets.
type QuestionRepo struct{ Pool PgxPool }

// NewQuestionRepo constructs a QuestionRepo with the given pool.
func NewQuestionRepo(p PgxPool) *QuestionRepo { return &QuestionRepo{Pool: p} }

// ListByStage returns the question set for one (company, stage), options
// included with their correct flags. Handlers strip the flags before serving
// questions to candidates.
func (r *QuestionRepo) ListByStage(ctx domain.Context, company, stage string) ([]domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.ListByStage")
	defer span.End()
	q := `SELECT id, company, stage, text, category, options FROM questions WHERE company=$1 AND stage=$2 ORDER BY id`
	rows, err := r.Pool.Query(ctx, q, company, stage)
	if err != nil {
		return nil, fmt.Errorf("op=question.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		var qu domain.Question
		var opts []byte
		if err := rows.Scan(&qu.ID, &qu.Company, &qu.Stage, &qu.Text, &qu.Category, &opts); err != nil {
			return nil, fmt.Errorf("op=question.list: %w", err)
		}
		if err := json.Unmarshal(opts, &qu.Options); err != nil {
			return nil, fmt.Errorf("op=question.list id=%s: %w", qu.ID, err)
		}
		out = append(out, qu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=question.list: %w", err)
	}
	return out, nil
}
