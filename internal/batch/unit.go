package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SimulationUnit identifies one simulation to run: a building (1-based
// sample index) and optionally the 0-based index of an upgrade to apply.
// A nil Upgrade means the baseline building.
type SimulationUnit struct {
	Building int
	Upgrade  *int
}

// SimID is the unit's directory name under results/, e.g. bldg0000005up00
// for a baseline and bldg0000005up02 for upgrade index 1. Upgrade numbers in
// the ID are 1-based so 0 can mean baseline.
func (u SimulationUnit) SimID() string {
	up := 0
	if u.Upgrade != nil {
		up = *u.Upgrade + 1
	}
	return fmt.Sprintf("bldg%07dup%02d", u.Building, up)
}

// MarshalJSON encodes the unit as a two-element array, [building, upgrade],
// with null for a baseline upgrade slot. This is the on-disk form inside
// job descriptors.
func (u SimulationUnit) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*int{intPtr(u.Building), u.Upgrade})
}

// UnmarshalJSON decodes the [building, upgrade] pair form.
func (u *SimulationUnit) UnmarshalJSON(data []byte) error {
	var pair [2]*int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("simulation unit: %w", err)
	}
	if pair[0] == nil {
		return fmt.Errorf("simulation unit: building index missing in %s", data)
	}
	u.Building = *pair[0]
	u.Upgrade = pair[1]
	return nil
}

func intPtr(i int) *int { return &i }

// JobDescriptor is the persisted unit list for one array task. The union of
// all descriptors in a batch covers the workload exactly once.
type JobDescriptor struct {
	JobNum int              `json:"job_num"`
	Batch  []SimulationUnit `json:"batch"`
}

// DescriptorPath returns the artifact path for job jobNum under outputDir.
func DescriptorPath(outputDir string, jobNum int) string {
	return filepath.Join(outputDir, fmt.Sprintf("job%03d.json", jobNum))
}

// WriteDescriptor persists the descriptor to its jobNNN.json artifact.
func WriteDescriptor(outputDir string, d JobDescriptor) error {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal job %d: %w", d.JobNum, err)
	}
	path := DescriptorPath(outputDir, d.JobNum)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write job descriptor %s: %w", path, err)
	}
	return nil
}

// ReadDescriptor loads the jobNNN.json artifact for jobNum.
func ReadDescriptor(outputDir string, jobNum int) (JobDescriptor, error) {
	path := DescriptorPath(outputDir, jobNum)
	data, err := os.ReadFile(path)
	if err != nil {
		return JobDescriptor{}, fmt.Errorf("read job descriptor: %w", err)
	}
	var d JobDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return JobDescriptor{}, fmt.Errorf("parse job descriptor %s: %w", path, err)
	}
	return d, nil
}
