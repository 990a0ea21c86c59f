package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Summary aggregates a batch's recorded outcomes by status.
type Summary struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// Summarize counts recorded outcomes per status. An empty batchID
// aggregates across all batches.
func (s *Store) Summarize(ctx context.Context, batchID string) (Summary, error) {
	query := `SELECT status, COUNT(*) FROM outcomes GROUP BY status ORDER BY status`
	args := []any{}
	if batchID != "" {
		query = `SELECT status, COUNT(*) FROM outcomes WHERE batch_id = ? GROUP BY status ORDER BY status`
		args = append(args, batchID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize outcomes: %w", err)
	}
	defer rows.Close()

	summary := Summary{ByStatus: make(map[string]int)}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, fmt.Errorf("scan outcome summary: %w", err)
		}
		summary.ByStatus[status] = count
		summary.Total += count
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("summarize outcomes: %w", err)
	}
	return summary, nil
}

// ReadOutcomes returns every recorded outcome for a batch, ordered by
// building then upgrade for deterministic output.
func (s *Store) ReadOutcomes(ctx context.Context, batchID string) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sim_id, batch_id, building, upgrade, job_num, status, skipped
		FROM outcomes
		WHERE batch_id = ?
		ORDER BY building ASC, upgrade ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}
	defer rows.Close()

	var records []OutcomeRecord
	for rows.Next() {
		var rec OutcomeRecord
		var upgrade sql.NullInt64
		var skipped int
		if err := rows.Scan(&rec.SimID, &rec.BatchID, &rec.Building, &upgrade, &rec.JobNum, &rec.Status, &skipped); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if upgrade.Valid {
			up := int(upgrade.Int64)
			rec.Upgrade = &up
		}
		rec.Skipped = skipped != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}
	return records, nil
}
