package batch

import (
	"fmt"
	"math/rand"
)

// MinUnitsPerJob is the floor on job size. The scheduler charges fixed
// overhead per array task regardless of how much work it carries, so jobs
// smaller than this waste allocation.
const MinUnitsPerJob = 48

// UnitsPerJob computes the job size for a workload: the ceiling division of
// the total unit count by the requested job count, floored at minPerJob.
func UnitsPerJob(totalUnits, requestedJobs, minPerJob int) int {
	perJob := (totalUnits + requestedJobs - 1) / requestedJobs
	if perJob < minPerJob {
		perJob = minPerJob
	}
	return perJob
}

// BuildWorkload enumerates the full unit set for a campaign: baselines
// (1..nDatapoints, no upgrade) followed by the cartesian product of
// buildings and upgrade indices.
func BuildWorkload(nDatapoints, nUpgrades int) []SimulationUnit {
	units := make([]SimulationUnit, 0, nDatapoints*(nUpgrades+1))
	for i := 1; i <= nDatapoints; i++ {
		units = append(units, SimulationUnit{Building: i})
	}
	for i := 1; i <= nDatapoints; i++ {
		for up := 0; up < nUpgrades; up++ {
			u := up
			units = append(units, SimulationUnit{Building: i, Upgrade: &u})
		}
	}
	return units
}

// Partition shuffles the workload once and slices it into contiguous jobs of
// unitsPerJob, the last job possibly smaller. The shuffle spreads the
// heavier upgrade variants evenly across jobs instead of clustering them at
// the tail of the array, which keeps worst-case job runtimes close together.
//
// Job numbers are 1-based and contiguous. The returned descriptors cover
// every unit of the input exactly once.
func Partition(units []SimulationUnit, unitsPerJob int, rng *rand.Rand) ([]JobDescriptor, error) {
	if unitsPerJob < 1 {
		return nil, fmt.Errorf("partition: units per job must be positive, got %d", unitsPerJob)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("partition: empty workload")
	}

	shuffled := make([]SimulationUnit, len(units))
	copy(shuffled, units)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var jobs []JobDescriptor
	for start := 0; start < len(shuffled); start += unitsPerJob {
		end := start + unitsPerJob
		if end > len(shuffled) {
			end = len(shuffled)
		}
		jobs = append(jobs, JobDescriptor{
			JobNum: len(jobs) + 1,
			Batch:  shuffled[start:end],
		})
	}
	return jobs, nil
}

// WriteDescriptors persists every descriptor before any submission happens,
// so a crash between partitioning and submission leaves the partition
// reconstructable from disk.
func WriteDescriptors(outputDir string, jobs []JobDescriptor) error {
	for _, d := range jobs {
		if err := WriteDescriptor(outputDir, d); err != nil {
			return err
		}
	}
	return nil
}
