package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestProject lays out a minimal buildstock tree plus project file and
// returns the project file path and the output directory.
func writeTestProject(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	buildstockDir := filepath.Join(root, "buildstock")
	outputDir := filepath.Join(root, "out")
	charDir := filepath.Join(buildstockDir, "project_test", "housing_characteristics")
	require.NoError(t, os.MkdirAll(charDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(charDir, "Location.tsv"),
		[]byte("Option=urban\tOption=rural\n0.6\t0.4\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(charDir, "Vintage.tsv"),
		[]byte("Dependency=Location\tOption=old\tOption=new\nurban\t0.7\t0.3\nrural\t0.2\t0.8\n"), 0o644))

	project := fmt.Sprintf(`
project_directory: project_test
buildstock_directory: %s
output_directory: %s
baseline:
  n_datapoints: 8
`, buildstockDir, outputDir)
	projectFile := filepath.Join(root, "project.yml")
	require.NoError(t, os.WriteFile(projectFile, []byte(project), 0o644))
	return projectFile, outputDir
}

func TestSampleCommand_WritesTable(t *testing.T) {
	projectFile, outputDir := writeTestProject(t)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"sample", projectFile, "--workers", "1"})

	require.NoError(t, cmd.Execute())

	tablePath := filepath.Join(outputDir, "buildstock.csv")
	assert.Contains(t, out.String(), tablePath)

	data, err := os.ReadFile(tablePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 9, "header plus eight samples")
	assert.Equal(t, "Building,Location,Vintage", lines[0])
}

func TestSampleCommand_MissingProject(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"sample", filepath.Join(t.TempDir(), "nope.yml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
