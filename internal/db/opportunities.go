package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/internship-matcher/internal/types"
)

// GetOpportunity retrieves an opportunity by ID. Returns nil if not found.
func (db *DB) GetOpportunity(ctx context.Context, id string) (*types.Opportunity, error) {
	var doc []byte
	err := db.pool.QueryRow(ctx,
		`SELECT listing FROM opportunities WHERE id = $1`,
		id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get opportunity %s: %w", id, err)
	}
	return decodeOpportunity(id, doc)
}

// UpsertOpportunity stores the listing document. Active and deadline are also kept
// as columns so open listings can be filtered in SQL.
func (db *DB) UpsertOpportunity(ctx context.Context, opp *types.Opportunity) error {
	doc, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO opportunities (id, listing, active, deadline)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET listing = $2, active = $3, deadline = $4, updated_at = NOW()`,
		opp.ID, doc, opp.Active, opp.Deadline,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListActiveOpportunities returns active listings whose deadline is unset or not before now,
// oldest first.
func (db *DB) ListActiveOpportunities(ctx context.Context, now time.Time) ([]types.Opportunity, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, listing FROM opportunities
		 WHERE active AND (deadline IS NULL OR deadline >= $1)
		 ORDER BY created_at, id`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []types.Opportunity
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opp, err := decodeOpportunity(id, doc)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate opportunities: %w", err)
	}
	return opps, nil
}

func decodeOpportunity(id string, doc []byte) (*types.Opportunity, error) {
	var opp types.Opportunity
	if err := json.Unmarshal(doc, &opp); err != nil {
		return nil, fmt.Errorf("failed to decode opportunity %s: %w", id, err)
	}
	opp.ID = id
	return &opp, nil
}
