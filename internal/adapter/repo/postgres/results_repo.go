package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// ResultRepo stores append-only test result records.
type ResultRepo struct{ Pool PgxPool }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p PgxPool) *ResultRepo { return &ResultRepo{Pool: p} }

// Append inserts a result record and returns its id. Records are never
// updated or deleted.
func (r *ResultRepo) Append(ctx domain.Context, res domain.TestResult) (string, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Append")
	defer span.End()
	id := res.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO results (id, user_id, test_id, score, total, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.Pool.Exec(ctx, q, id, res.UserID, res.TestID, res.Score, res.Total, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=result.append: %w", err)
	}
	return id, nil
}

// ListByUser returns a user's result records, newest first.
func (r *ResultRepo) ListByUser(ctx domain.Context, userID string) ([]domain.TestResult, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.ListByUser")
	defer span.End()
	q := `SELECT id, user_id, test_id, score, total, created_at FROM results WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("op=result.list: %w", err)
	}
	defer rows.Close()
	var out []domain.TestResult
	for rows.Next() {
		var tr domain.TestResult
		if err := rows.Scan(&tr.ID, &tr.UserID, &tr.TestID, &tr.Score, &tr.Total, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=result.list: %w", err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=result.list: %w", err)
	}
	return out, nil
}
