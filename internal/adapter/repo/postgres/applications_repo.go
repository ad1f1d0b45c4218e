package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// ApplicationRepo persists candidate pipelines and their stage results.
type ApplicationRepo struct{ Pool PgxPool }

// NewApplicationRepo constructs an ApplicationRepo with the given pool.
func NewApplicationRepo(p PgxPool) *ApplicationRepo { return &ApplicationRepo{Pool: p} }

// Create inserts a new application and returns its id.
func (r *ApplicationRepo) Create(ctx domain.Context, a domain.Application) (string, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Create")
	defer span.End()
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO applications (id, user_id, company, current_stage, status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`
	now := time.Now().UTC()
	_, err := r.Pool.Exec(ctx, q, id, a.UserID, a.Company, a.CurrentStage, a.Status, now, now)
	if err != nil {
		return "", fmt.Errorf("op=application.create: %w", err)
	}
	return id, nil
}

// Get loads an application and its recorded stage results.
func (r *ApplicationRepo) Get(ctx domain.Context, id string) (domain.Application, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Get")
	defer span.End()
	q := `SELECT id, user_id, company, current_stage, status, final_track, final_decision, created_at, updated_at
	FROM applications WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var a domain.Application
	if err := row.Scan(&a.ID, &a.UserID, &a.Company, &a.CurrentStage, &a.Status, &a.FinalTrack, &a.FinalDecision, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, fmt.Errorf("op=application.get: %w", domain.ErrNotFound)
		}
		return domain.Application{}, fmt.Errorf("op=application.get: %w", err)
	}

	sq := `SELECT application_id, stage, score, total, percentage, passed, time_spent_sec, feedback, submitted_at
	FROM stage_results WHERE application_id=$1 ORDER BY submitted_at ASC`
	rows, err := r.Pool.Query(ctx, sq, id)
	if err != nil {
		return domain.Application{}, fmt.Errorf("op=application.get_stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sr domain.StageResult
		var submitted time.Time
		if err := rows.Scan(&sr.ApplicationID, &sr.Stage, &sr.Score, &sr.Total, &sr.Percentage, &sr.Passed, &sr.TimeSpentSec, &sr.Feedback, &submitted); err != nil {
			return domain.Application{}, fmt.Errorf("op=application.get_stages: %w", err)
		}
		sr.SubmittedAt = &submitted
		a.Stages = append(a.Stages, sr)
	}
	if err := rows.Err(); err != nil {
		return domain.Application{}, fmt.Errorf("op=application.get_stages: %w", err)
	}
	return a, nil
}

// SubmitStageAndProgress persists a stage result and the pipeline pointer
// update in a single transaction. The conditional insert makes the
// already-submitted check and the write one atomic statement: a replayed
// submission affects zero rows and rolls back with ErrAlreadySubmitted. A
// failure of the progress or track write also rolls back the claim, so the
// candidate can retry instead of being wedged behind a claimed stage.
func (r *ApplicationRepo) SubmitStageAndProgress(ctx domain.Context, sr domain.StageResult, currentStage, status, track, decision string) error {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.SubmitStageAndProgress")
	defer span.End()

	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("op=application.submit_stage: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	submitted := time.Now().UTC()
	if sr.SubmittedAt != nil {
		submitted = *sr.SubmittedAt
	}
	q := `INSERT INTO stage_results (application_id, stage, score, total, percentage, passed, time_spent_sec, feedback, submitted_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (application_id, stage) DO NOTHING`
	tag, err := tx.Exec(ctx, q, sr.ApplicationID, sr.Stage, sr.Score, sr.Total, sr.Percentage, sr.Passed, sr.TimeSpentSec, sr.Feedback, submitted)
	if err != nil {
		return fmt.Errorf("op=application.submit_stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=application.submit_stage app=%s stage=%s: %w", sr.ApplicationID, sr.Stage, domain.ErrAlreadySubmitted)
	}

	now := time.Now().UTC()
	if track != "" {
		// The empty-track guard makes the terminal write exactly-once; a
		// repeat attempt is a server bug and surfaces as such.
		uq := `UPDATE applications SET current_stage=$2, status=$3, final_track=$4, final_decision=$5, updated_at=$6
		WHERE id=$1 AND final_track=''`
		utag, err := tx.Exec(ctx, uq, sr.ApplicationID, currentStage, status, track, decision, now)
		if err != nil {
			return fmt.Errorf("op=application.set_final_track: %w", err)
		}
		if utag.RowsAffected() == 0 {
			return fmt.Errorf("op=application.set_final_track app=%s: track already assigned: %w", sr.ApplicationID, domain.ErrInternal)
		}
	} else {
		uq := `UPDATE applications SET current_stage=$2, status=$3, updated_at=$4 WHERE id=$1`
		if _, err := tx.Exec(ctx, uq, sr.ApplicationID, currentStage, status, now); err != nil {
			return fmt.Errorf("op=application.update_progress: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=application.submit_stage: commit: %w", err)
	}
	return nil
}
