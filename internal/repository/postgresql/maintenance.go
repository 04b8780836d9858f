package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type runRepository struct {
	db *database.DB
}

func NewRunRepository(db *database.DB) maintenance.RunRepository {
	return &runRepository{db: db}
}

// Claim implements maintenance.RunRepository.
func (r *runRepository) Claim(ctx context.Context, job string, period string) (maintenance.Run, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return maintenance.Run{}, fmt.Errorf("failed to generate run id: %w", err)
	}

	run := maintenance.Run{ID: id.String(), Job: job, Period: period}
	err = q.QueryRow(ctx,
		`INSERT INTO maintenance_runs (id, job, period) VALUES ($1, $2, $3) RETURNING ran_at`,
		run.ID, job, period,
	).Scan(&run.RanAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return maintenance.Run{}, maintenance.ErrPeriodAlreadyProcessed
		}
		return maintenance.Run{}, fmt.Errorf("failed to claim %s for %s: %w", job, period, err)
	}
	return run, nil
}

// SetAffected implements maintenance.RunRepository.
func (r *runRepository) SetAffected(ctx context.Context, id string, affected int64) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE maintenance_runs SET affected = $2 WHERE id = $1`, id, affected)
	if err != nil {
		return fmt.Errorf("failed to record affected rows: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return maintenance.ErrRunNotFound
	}
	return nil
}

// Get implements maintenance.RunRepository.
func (r *runRepository) Get(ctx context.Context, job string, period string) (maintenance.Run, error) {
	q := GetQuerier(ctx, r.db)

	var run maintenance.Run
	err := q.QueryRow(ctx,
		`SELECT id, job, period, affected, ran_at FROM maintenance_runs WHERE job = $1 AND period = $2`,
		job, period,
	).Scan(&run.ID, &run.Job, &run.Period, &run.Affected, &run.RanAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return maintenance.Run{}, maintenance.ErrRunNotFound
		}
		return maintenance.Run{}, fmt.Errorf("failed to get maintenance run: %w", err)
	}
	return run, nil
}

// ListRecent implements maintenance.RunRepository.
func (r *runRepository) ListRecent(ctx context.Context, limit int) ([]maintenance.Run, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT id, job, period, affected, ran_at FROM maintenance_runs ORDER BY ran_at DESC LIMIT NULLIF($1, 0)`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance runs: %w", err)
	}
	defer rows.Close()

	var runs []maintenance.Run
	for rows.Next() {
		var run maintenance.Run
		if err := rows.Scan(&run.ID, &run.Job, &run.Period, &run.Affected, &run.RanAt); err != nil {
			return nil, fmt.Errorf("failed to scan maintenance run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate maintenance runs: %w", err)
	}
	return runs, nil
}
