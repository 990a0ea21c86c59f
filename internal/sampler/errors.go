package sampler

import (
	"errors"
	"fmt"
	"strings"
)

// DependencyCycleError reports that the attribute dependency graph could not
// be totally ordered: either it contains a cycle or an attribute references
// a dependency that does not exist in the table set.
type DependencyCycleError struct {
	// Unresolved lists the attributes still unordered when the pass limit
	// was reached, sorted by name.
	Unresolved []string

	// Passes is the number of stagnant passes attempted before giving up.
	Passes int
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("unable to resolve attribute dependency order after %d passes: unresolved attributes [%s]",
		e.Passes, strings.Join(e.Unresolved, ", "))
}

// IsDependencyCycle reports whether err is a DependencyCycleError.
// Uses errors.As to handle wrapped errors.
func IsDependencyCycle(err error) bool {
	var ce *DependencyCycleError
	return errors.As(err, &ce)
}

// NonUniqueDistributionError reports that filtering an attribute table by a
// dependency context left more than one row. The table data violates the
// one-row-per-context invariant, so no sample drawn from it can be trusted
// and the whole sampling run aborts.
type NonUniqueDistributionError struct {
	Attribute   string
	SampleIndex int
	Rows        int

	// Context is the dependency assignment that failed to reduce the table
	// to a single row.
	Context map[string]string
}

func (e *NonUniqueDistributionError) Error() string {
	return fmt.Sprintf("unable to reduce %s to 1 row for sample %d: got %d rows (context %v)",
		e.Attribute, e.SampleIndex, e.Rows, e.Context)
}

// IsNonUniqueDistribution reports whether err is a NonUniqueDistributionError.
// Uses errors.As to handle wrapped errors.
func IsNonUniqueDistribution(err error) bool {
	var ne *NonUniqueDistributionError
	return errors.As(err, &ne)
}
