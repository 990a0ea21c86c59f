package sampler

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stockbatch/internal/tsv"
)

func mustParse(t *testing.T, attribute, data string) *tsv.Table {
	t.Helper()
	table, err := tsv.Parse(attribute, strings.NewReader(data))
	require.NoError(t, err)
	return table
}

// twoAttrTables is the canonical two-attribute fixture: A is unconditional,
// B conditions on A.
func twoAttrTables(t *testing.T) map[string]*tsv.Table {
	t.Helper()
	a := mustParse(t, "A", "Option=x\tOption=y\n0.5\t0.5\n")
	b := mustParse(t, "B",
		"Dependency=A\tOption=low\tOption=high\n"+
			"x\t0.25\t0.75\n"+
			"y\t0.8\t0.2\n")
	return map[string]*tsv.Table{"A": a, "B": b}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestConditionalSampler_FourRowGolden(t *testing.T) {
	out := filepath.Join(t.TempDir(), "buildstock.csv")
	s := NewConditionalSampler(twoAttrTables(t), out, quietLogger())
	s.Workers = 1 // single worker keeps row order deterministic for the golden

	path, err := s.RunSampling(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "four_row_table", data)
}

func TestConditionalSampler_Deterministic(t *testing.T) {
	dir := t.TempDir()
	run := func(name string) string {
		s := NewConditionalSampler(twoAttrTables(t), filepath.Join(dir, name), quietLogger())
		s.Workers = 1
		path, err := s.RunSampling(context.Background(), 16)
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, run("first.csv"), run("second.csv"))
}

func TestConditionalSampler_RejectsMissingContext(t *testing.T) {
	// B has no row for A=y, so every sample landing on y must be dropped
	// without failing the run.
	a := mustParse(t, "A", "Option=x\tOption=y\n0.5\t0.5\n")
	b := mustParse(t, "B", "Dependency=A\tOption=low\tOption=high\nx\t0.25\t0.75\n")
	out := filepath.Join(t.TempDir(), "buildstock.csv")
	s := NewConditionalSampler(map[string]*tsv.Table{"A": a, "B": b}, out, quietLogger())
	s.Workers = 1

	path, err := s.RunSampling(context.Background(), 4)
	require.NoError(t, err)

	buildings := readBuildingIndices(t, path)
	// Samples 2 and 3 resolve A=y (coordinates 0.5 and 0.75) and are
	// rejected; 1 and 4 resolve A=x and survive.
	assert.Equal(t, []int{1, 4}, buildings)
}

func TestConditionalSampler_NonUniqueDistributionFatal(t *testing.T) {
	a := mustParse(t, "A", "Option=x\tOption=y\n0.5\t0.5\n")
	b := mustParse(t, "B",
		"Dependency=A\tOption=low\tOption=high\n"+
			"x\t0.25\t0.75\n"+
			"x\t0.5\t0.5\n"+
			"y\t0.8\t0.2\n")
	out := filepath.Join(t.TempDir(), "buildstock.csv")
	s := NewConditionalSampler(map[string]*tsv.Table{"A": a, "B": b}, out, quietLogger())
	s.Workers = 1

	_, err := s.RunSampling(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, IsNonUniqueDistribution(err))

	var ne *NonUniqueDistributionError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "B", ne.Attribute)
	assert.Equal(t, 2, ne.Rows)
}

func TestConditionalSampler_CycleFatalBeforeAnyRow(t *testing.T) {
	a := mustParse(t, "A", "Dependency=B\tOption=x\nv\t1.0\n")
	b := mustParse(t, "B", "Dependency=A\tOption=y\nv\t1.0\n")
	out := filepath.Join(t.TempDir(), "buildstock.csv")
	s := NewConditionalSampler(map[string]*tsv.Table{"A": a, "B": b}, out, quietLogger())

	_, err := s.RunSampling(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, IsDependencyCycle(err))
	assert.NoFileExists(t, out)
}

func TestConditionalSampler_ConcurrentRunCoversAllIndices(t *testing.T) {
	out := filepath.Join(t.TempDir(), "buildstock.csv")
	s := NewConditionalSampler(twoAttrTables(t), out, quietLogger())
	s.Workers = 8

	const n = 200
	path, err := s.RunSampling(context.Background(), n)
	require.NoError(t, err)

	buildings := readBuildingIndices(t, path)
	require.Len(t, buildings, n)
	for i, b := range buildings {
		assert.Equal(t, i+1, b, "every index present exactly once")
	}
}

func TestConditionalSampler_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "buildstock.csv")
	s := NewConditionalSampler(twoAttrTables(t), out, quietLogger())

	_, err := s.RunSampling(ctx, 1000)
	require.Error(t, err)
}

// readBuildingIndices parses the first column of every data row, sorted
// ascending, since concurrent runs make no ordering promise.
func readBuildingIndices(t *testing.T, path string) []int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var buildings []int
	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "header row")
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ",")
		b, err := strconv.Atoi(fields[0])
		require.NoError(t, err)
		buildings = append(buildings, b)
	}
	require.NoError(t, scanner.Err())
	sort.Ints(buildings)
	return buildings
}
