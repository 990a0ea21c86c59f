package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	jobLogPattern        = regexp.MustCompile(`^job\.out-(\d+)$`)
	jobDescriptorPattern = regexp.MustCompile(`^job(\d+)\.json$`)
	walltimeKillPattern  = regexp.MustCompile(`PBS: job killed: walltime \d+ exceeded limit \d+`)
)

// RestartPlan is what a scan of a prior run's output directory decides:
// which array tasks to resubmit and how big the original jobs were.
type RestartPlan struct {
	// Tasks is the sorted ascending list of array task numbers whose log
	// shows a walltime kill.
	Tasks []int

	// UnitsPerJob is the maximum unit count observed across the persisted
	// job descriptors, reused to size the restart submission's walltime.
	// Descriptors are never re-partitioned; marked tasks rerun their
	// original unit lists verbatim.
	UnitsPerJob int
}

// TaskSpec renders the restart set as a comma-joined task list. The restart
// set is sparse, so a first-last range would resubmit completed tasks.
func (p RestartPlan) TaskSpec() string {
	parts := make([]string, len(p.Tasks))
	for i, task := range p.Tasks {
		parts[i] = strconv.Itoa(task)
	}
	return strings.Join(parts, ",")
}

// ScanForRestarts inspects outputDir after a batch has run and classifies
// every array task with a job.out-N log artifact. Logs containing the
// scheduler's walltime-kill line mark their task for restart; the log is
// archived by appending to a .bak sibling and the original removed, so
// scanning the same directory again finds nothing to restart. Tasks with no
// log or no kill line are left alone: they either completed or have not run.
// Completion and failure markers written per simulation unit are out of this
// scanner's sight; it detects scheduler-level terminations only.
func ScanForRestarts(outputDir string) (RestartPlan, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return RestartPlan{}, fmt.Errorf("read output directory: %w", err)
	}

	var plan RestartPlan
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		if m := jobLogPattern.FindStringSubmatch(name); m != nil {
			taskNum, err := strconv.Atoi(m[1])
			if err != nil {
				return RestartPlan{}, fmt.Errorf("task number in %s: %w", name, err)
			}
			logPath := filepath.Join(outputDir, name)
			timedOut, err := archiveIfTimedOut(logPath)
			if err != nil {
				return RestartPlan{}, err
			}
			if timedOut {
				plan.Tasks = append(plan.Tasks, taskNum)
			}
			continue
		}

		if m := jobDescriptorPattern.FindStringSubmatch(name); m != nil {
			jobNum, err := strconv.Atoi(m[1])
			if err != nil {
				return RestartPlan{}, fmt.Errorf("job number in %s: %w", name, err)
			}
			d, err := ReadDescriptor(outputDir, jobNum)
			if err != nil {
				return RestartPlan{}, err
			}
			if len(d.Batch) > plan.UnitsPerJob {
				plan.UnitsPerJob = len(d.Batch)
			}
		}
	}

	sort.Ints(plan.Tasks)
	return plan, nil
}

// archiveIfTimedOut checks one scheduler log for the walltime-kill
// signature. On a match the contents are appended to <log>.bak and the
// original removed, making a subsequent scan idempotent.
func archiveIfTimedOut(logPath string) (bool, error) {
	contents, err := os.ReadFile(logPath)
	if err != nil {
		return false, fmt.Errorf("read scheduler log: %w", err)
	}
	if !walltimeKillPattern.Match(contents) {
		return false, nil
	}

	bak, err := os.OpenFile(logPath+".bak", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("open log archive: %w", err)
	}
	if _, err := bak.WriteString("\n"); err != nil {
		bak.Close()
		return false, fmt.Errorf("archive scheduler log: %w", err)
	}
	if _, err := bak.Write(contents); err != nil {
		bak.Close()
		return false, fmt.Errorf("archive scheduler log: %w", err)
	}
	if err := bak.Close(); err != nil {
		return false, err
	}
	if err := os.Remove(logPath); err != nil {
		return false, fmt.Errorf("remove archived log: %w", err)
	}
	return true, nil
}
