package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/internship-matcher/internal/types"
)

const upsertRecommendationSQL = `INSERT INTO recommendations (id, candidate_id, opportunity_id, score, reasons, scored_by, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)
	 ON CONFLICT (candidate_id, opportunity_id)
	 DO UPDATE SET score = $4, reasons = $5, scored_by = $6, created_at = $7`

// ListRecommendedOpportunityIDs returns the ids of opportunities already recommended to a candidate.
func (db *DB) ListRecommendedOpportunityIDs(ctx context.Context, candidateID string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT opportunity_id FROM recommendations WHERE candidate_id = $1 ORDER BY opportunity_id`,
		candidateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommended ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan recommended ids: %w", err)
	}
	return ids, nil
}

// UpsertRecommendations stores a batch in one transaction.
func (db *DB) UpsertRecommendations(ctx context.Context, recs []types.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range recs {
			args, err := recommendationArgs(&recs[i])
			if err != nil {
				return err
			}
			batch.Queue(upsertRecommendationSQL, args...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert recommendations: %w", err)
		}
		return nil
	})
}

// ListRecommendations returns a candidate's stored recommendations, best first.
func (db *DB) ListRecommendations(ctx context.Context, candidateID string, limit int) ([]types.Recommendation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT candidate_id, opportunity_id, score, reasons, scored_by, created_at
		 FROM recommendations
		 WHERE candidate_id = $1
		 ORDER BY score DESC, created_at DESC, opportunity_id
		 LIMIT $2`,
		candidateID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	recs := []types.Recommendation{}
	for rows.Next() {
		var rec types.Recommendation
		var reasons []byte
		if err := rows.Scan(&rec.CandidateID, &rec.OpportunityID, &rec.Score, &reasons, &rec.ScoredBy, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		if rec.Reasons, err = decodeReasons(reasons); err != nil {
			return nil, err
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}
	return recs, nil
}

func recommendationArgs(rec *types.Recommendation) ([]any, error) {
	reasons, err := json.Marshal(nonNilReasons(rec.Reasons))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reasons: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return []any{
		uuid.New(), rec.CandidateID, rec.OpportunityID,
		types.ClampScore(rec.Score), reasons, rec.ScoredBy, createdAt.UTC(),
	}, nil
}

func nonNilReasons(reasons []string) []string {
	if reasons == nil {
		return []string{}
	}
	return reasons
}

func decodeReasons(doc []byte) ([]string, error) {
	reasons := []string{}
	if len(doc) == 0 {
		return reasons, nil
	}
	if err := json.Unmarshal(doc, &reasons); err != nil {
		return nil, fmt.Errorf("failed to decode reasons: %w", err)
	}
	if reasons == nil {
		reasons = []string{}
	}
	return reasons, nil
}
