package store

import (
	"context"
	"database/sql"
	"fmt"
)

// OutcomeRecord is one simulation unit's result.
type OutcomeRecord struct {
	SimID    string
	BatchID  string
	Building int
	Upgrade  *int // nil for baseline
	JobNum   int
	Status   string
	Skipped  bool
}

// WriteOutcome records one unit's outcome. INSERT OR REPLACE keyed on
// sim_id: a restarted task re-recording a unit overwrites the earlier row
// rather than erroring, so retries stay idempotent.
func (s *Store) WriteOutcome(ctx context.Context, rec OutcomeRecord) error {
	var upgrade sql.NullInt64
	if rec.Upgrade != nil {
		upgrade = sql.NullInt64{Int64: int64(*rec.Upgrade), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO outcomes
		(sim_id, batch_id, building, upgrade, job_num, status, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.SimID,
		rec.BatchID,
		rec.Building,
		upgrade,
		rec.JobNum,
		rec.Status,
		boolToInt(rec.Skipped),
	)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
