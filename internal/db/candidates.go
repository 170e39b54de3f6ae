package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/internship-matcher/internal/types"
)

// GetCandidate retrieves a candidate profile by ID. Returns nil if not found.
func (db *DB) GetCandidate(ctx context.Context, id string) (*types.CandidateProfile, error) {
	var doc []byte
	err := db.pool.QueryRow(ctx,
		`SELECT profile FROM candidates WHERE id = $1`,
		id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate %s: %w", id, err)
	}

	var profile types.CandidateProfile
	if err := json.Unmarshal(doc, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode candidate %s: %w", id, err)
	}
	profile.ID = id
	return &profile, nil
}

// UpsertCandidate stores the profile document, replacing any previous version.
func (db *DB) UpsertCandidate(ctx context.Context, profile *types.CandidateProfile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal candidate: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO candidates (id, profile)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET profile = $2, updated_at = NOW()`,
		profile.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate %s: %w", profile.ID, err)
	}
	return nil
}
