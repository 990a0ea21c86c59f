package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler records submissions and returns canned job ids.
type fakeScheduler struct {
	arrays     []string // task specs, in submission order
	dependents []string // job ids each dependent was chained after
	specs      []ResourceSpec
	failArray  error
}

func (f *fakeScheduler) SubmitArray(_ context.Context, taskSpec string, res ResourceSpec) (string, error) {
	if f.failArray != nil {
		return "", f.failArray
	}
	f.arrays = append(f.arrays, taskSpec)
	f.specs = append(f.specs, res)
	return fmt.Sprintf("array-%d", len(f.arrays)), nil
}

func (f *fakeScheduler) SubmitDependent(_ context.Context, afterJobID string, _ ResourceSpec) (string, error) {
	f.dependents = append(f.dependents, afterJobID)
	return "post-" + afterJobID, nil
}

func TestSubmitBatch_PersistsThenSubmitsThenChains(t *testing.T) {
	dir := t.TempDir()
	sched := &fakeScheduler{}

	jobID, err := SubmitBatch(context.Background(), sched, SubmitOptions{
		OutputDir:     dir,
		NDatapoints:   100,
		NUpgrades:     0,
		RequestedJobs: 200,
		Resources:     ResourceSpec{Queue: "batch-h", NodeType: "haswell", Allocation: "res_stock", MinutesPerSim: 3},
		Rng:           rand.New(rand.NewSource(7)),
		Logger:        quietLogger(),
	})
	require.NoError(t, err)
	assert.Equal(t, "array-1", jobID)

	require.Equal(t, []string{"1-3"}, sched.arrays)
	assert.Equal(t, []string{"array-1"}, sched.dependents, "post-processing chained on the array")
	assert.Equal(t, 48, sched.specs[0].UnitsPerJob)

	// All three descriptors on disk.
	for jobNum := 1; jobNum <= 3; jobNum++ {
		assert.FileExists(t, DescriptorPath(dir, jobNum))
	}
}

func TestSubmitBatch_SubmissionFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	submitErr := &SubmitError{Command: "qsub", Stderr: "qsub: bad queue", Err: errors.New("exit status 1")}
	sched := &fakeScheduler{failArray: submitErr}

	_, err := SubmitBatch(context.Background(), sched, SubmitOptions{
		OutputDir:     dir,
		NDatapoints:   10,
		RequestedJobs: 1,
		Rng:           rand.New(rand.NewSource(7)),
		Logger:        quietLogger(),
	})
	require.Error(t, err)
	assert.True(t, IsSubmitError(err))
	assert.Contains(t, err.Error(), "qsub: bad queue")

	// Descriptors survive the failed submission for a later resubmit.
	assert.FileExists(t, DescriptorPath(dir, 1))
}

func TestSubmitRestarts_ResubmitsSparseTaskList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDescriptor(dir, JobDescriptor{JobNum: 1, Batch: BuildWorkload(50, 0)}))
	for _, task := range []int{4, 2} {
		path := filepath.Join(dir, fmt.Sprintf("job.out-%d", task))
		require.NoError(t, os.WriteFile(path, []byte(killedLog), 0o644))
	}
	sched := &fakeScheduler{}

	jobID, err := SubmitRestarts(context.Background(), sched, dir, ResourceSpec{MinutesPerSim: 3}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "array-1", jobID)
	assert.Equal(t, []string{"2,4"}, sched.arrays)
	assert.Equal(t, 50, sched.specs[0].UnitsPerJob)
	assert.Equal(t, []string{"array-1"}, sched.dependents)
}

func TestSubmitRestarts_NothingToDo(t *testing.T) {
	sched := &fakeScheduler{}
	jobID, err := SubmitRestarts(context.Background(), sched, t.TempDir(), ResourceSpec{}, quietLogger())
	require.NoError(t, err)
	assert.Empty(t, jobID)
	assert.Empty(t, sched.arrays)
	assert.Empty(t, sched.dependents)
}
