package postgres

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		company TEXT NOT NULL,
		current_stage TEXT NOT NULL,
		status TEXT NOT NULL,
		final_track TEXT NOT NULL DEFAULT '',
		final_decision TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stage_results (
		application_id TEXT NOT NULL REFERENCES applications(id),
		stage TEXT NOT NULL,
		score INT NOT NULL,
		total INT NOT NULL,
		percentage INT NOT NULL,
		passed BOOLEAN NOT NULL,
		time_spent_sec INT NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (application_id, stage)
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		stage TEXT NOT NULL,
		text TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		options JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS questions_company_stage_idx ON questions (company, stage)`,
	`CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		test_id TEXT NOT NULL,
		score INT NOT NULL,
		total INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS results_user_idx ON results (user_id)`,
}

// Migrate applies the schema statements. Every statement is idempotent, so
// running at each startup is safe.
func Migrate(ctx context.Context, pool PgxPool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("op=postgres.Migrate: %w", err)
		}
	}
	return nil
}
