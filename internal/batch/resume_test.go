package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const killedLog = "some scheduler preamble\nPBS: job killed: walltime 7200 exceeded limit 7200\ntrailing output\n"
const cleanLog = "task ran to completion\n"

func writeRunDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Three jobs persisted; job 2 carries the most units.
	for jobNum, size := range map[int]int{1: 48, 2: 50, 3: 4} {
		d := JobDescriptor{JobNum: jobNum}
		for i := 0; i < size; i++ {
			d.Batch = append(d.Batch, SimulationUnit{Building: i + 1})
		}
		require.NoError(t, WriteDescriptor(dir, d))
	}

	// Task 3 timed out, task 1 completed cleanly, task 2 has no log yet.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.out-3"), []byte(killedLog), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.out-1"), []byte(cleanLog), 0o644))
	return dir
}

func TestScanForRestarts_ClassifiesAndRecoversUnitCount(t *testing.T) {
	dir := writeRunDir(t)

	plan, err := ScanForRestarts(dir)
	require.NoError(t, err)

	assert.Equal(t, []int{3}, plan.Tasks)
	assert.Equal(t, 50, plan.UnitsPerJob)
	assert.Equal(t, "3", plan.TaskSpec())

	// The timed-out log is archived and removed; the clean one untouched.
	assert.NoFileExists(t, filepath.Join(dir, "job.out-3"))
	assert.FileExists(t, filepath.Join(dir, "job.out-3.bak"))
	assert.FileExists(t, filepath.Join(dir, "job.out-1"))

	bak, err := os.ReadFile(filepath.Join(dir, "job.out-3.bak"))
	require.NoError(t, err)
	assert.Contains(t, string(bak), "PBS: job killed")
}

func TestScanForRestarts_SecondScanIsEmpty(t *testing.T) {
	dir := writeRunDir(t)

	first, err := ScanForRestarts(dir)
	require.NoError(t, err)
	require.NotEmpty(t, first.Tasks)

	second, err := ScanForRestarts(dir)
	require.NoError(t, err)
	assert.Empty(t, second.Tasks, "archived kills must not be re-detected")
	assert.Equal(t, 50, second.UnitsPerJob, "unit count still recoverable from descriptors")
}

func TestScanForRestarts_SortedTaskList(t *testing.T) {
	dir := t.TempDir()
	for _, task := range []int{12, 3, 7} {
		path := filepath.Join(dir, fmt.Sprintf("job.out-%d", task))
		require.NoError(t, os.WriteFile(path, []byte(killedLog), 0o644))
	}

	plan, err := ScanForRestarts(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7, 12}, plan.Tasks)
	assert.Equal(t, "3,7,12", plan.TaskSpec())
}

func TestScanForRestarts_ArchiveAppends(t *testing.T) {
	// A task that times out twice across two scans accumulates both logs in
	// the same .bak file.
	dir := t.TempDir()
	logPath := filepath.Join(dir, "job.out-5")

	require.NoError(t, os.WriteFile(logPath, []byte(killedLog), 0o644))
	_, err := ScanForRestarts(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(logPath, []byte(killedLog), 0o644))
	_, err = ScanForRestarts(dir)
	require.NoError(t, err)

	bak, err := os.ReadFile(logPath + ".bak")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(bak), "PBS: job killed"))
}

func TestScanForRestarts_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "buildstock.csv"), []byte("Building\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.out"), []byte(killedLog), 0o644))

	plan, err := ScanForRestarts(dir)
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)
	assert.Zero(t, plan.UnitsPerJob)
}
