package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "outcomes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outcomes.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestWriteOutcome_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	up := 2
	require.NoError(t, s.WriteOutcome(ctx, OutcomeRecord{
		SimID: "bldg0000001up00", BatchID: "batch-a", Building: 1, JobNum: 1, Status: "completed",
	}))
	require.NoError(t, s.WriteOutcome(ctx, OutcomeRecord{
		SimID: "bldg0000001up03", BatchID: "batch-a", Building: 1, Upgrade: &up, JobNum: 1, Status: "failed",
	}))

	records, err := s.ReadOutcomes(ctx, "batch-a")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "bldg0000001up00", records[0].SimID)
	assert.Nil(t, records[0].Upgrade)
	require.NotNil(t, records[1].Upgrade)
	assert.Equal(t, 2, *records[1].Upgrade)
}

func TestWriteOutcome_ReplaceOnRerun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := OutcomeRecord{SimID: "bldg0000002up00", BatchID: "b", Building: 2, JobNum: 3, Status: "failed"}
	require.NoError(t, s.WriteOutcome(ctx, rec))

	// Restarted task reruns the unit and it completes this time.
	rec.Status = "completed"
	rec.Skipped = false
	require.NoError(t, s.WriteOutcome(ctx, rec))

	records, err := s.ReadOutcomes(ctx, "b")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "completed", records[0].Status)
}

func TestSummarize(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, status := range []string{"completed", "completed", "failed"} {
		require.NoError(t, s.WriteOutcome(ctx, OutcomeRecord{
			SimID:    string(rune('a' + i)),
			BatchID:  "batch-a",
			Building: i + 1,
			JobNum:   1,
			Status:   status,
		}))
	}
	require.NoError(t, s.WriteOutcome(ctx, OutcomeRecord{
		SimID: "other", BatchID: "batch-b", Building: 1, JobNum: 1, Status: "completed",
	}))

	summary, err := s.Summarize(ctx, "batch-a")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, map[string]int{"completed": 2, "failed": 1}, summary.ByStatus)

	all, err := s.Summarize(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)
}
