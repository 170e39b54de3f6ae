package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/internship-matcher/internal/types"
)

const applicationColumns = `id, candidate_id, opportunity_id, status, feedback, interview_date, created_at, updated_at`

// ApplyAndBoost records an application and, when this call created it, raises the
// matching recommendation's score by boost, capped at 100. Both writes share one
// transaction, so a failed boost leaves no application behind. Applying twice keeps
// the first record and boosts nothing.
func (db *DB) ApplyAndBoost(ctx context.Context, candidateID, opportunityID string, boost float64) (app *types.Application, created, boosted bool, err error) {
	err = pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO applications (id, candidate_id, opportunity_id, status)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (candidate_id, opportunity_id) DO NOTHING`,
			uuid.New(), candidateID, opportunityID, string(types.ApplicationPending),
		)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		created = tag.RowsAffected() > 0

		app, err = scanApplication(tx.QueryRow(ctx,
			`SELECT `+applicationColumns+` FROM applications WHERE candidate_id = $1 AND opportunity_id = $2`,
			candidateID, opportunityID,
		))
		if err != nil {
			return fmt.Errorf("failed to load application: %w", err)
		}
		if !created {
			return nil
		}

		tag, err = tx.Exec(ctx,
			`UPDATE recommendations
			 SET score = LEAST(GREATEST(score + $3, 0), 100)
			 WHERE candidate_id = $1 AND opportunity_id = $2`,
			candidateID, opportunityID, boost,
		)
		if err != nil {
			return fmt.Errorf("failed to update recommendation score: %w", err)
		}
		boosted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return nil, false, false, err
	}
	return app, created, boosted, nil
}

// GetApplication retrieves an application by ID. Returns nil if not found.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	app, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application %s: %w", id, err)
	}
	return app, nil
}

// UpdateApplicationStatus applies an employer's review decision. Feedback and the
// interview date are replaced only when the update carries them. Returns nil if
// the application does not exist.
func (db *DB) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, update *types.ApplicationUpdate) (*types.Application, error) {
	app, err := scanApplication(db.pool.QueryRow(ctx,
		`UPDATE applications
		 SET status = $2,
		     feedback = COALESCE(NULLIF($3, ''), feedback),
		     interview_date = COALESCE($4, interview_date),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+applicationColumns,
		id, string(update.Status), update.Feedback, update.InterviewDate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update application %s: %w", id, err)
	}
	return app, nil
}

func scanApplication(row pgx.Row) (*types.Application, error) {
	var a types.Application
	if err := row.Scan(&a.ID, &a.CandidateID, &a.OpportunityID, &a.Status, &a.Feedback, &a.InterviewDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if a.InterviewDate != nil {
		utc := a.InterviewDate.UTC()
		a.InterviewDate = &utc
	}
	return &a, nil
}
