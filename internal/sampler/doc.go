// Package sampler generates the building-characteristic sample table that
// every simulation in a batch consumes.
//
// The conditional sampler is the algorithmic heart of the tool. It walks the
// attribute tables in dependency order and evaluates one low-discrepancy
// point per requested sample:
//
//  1. ResolveOrder topologically orders the attributes so each one is
//     sampled only after everything it conditions on.
//  2. A Sobol sequence supplies one point in the unit hyper-cube per sample
//     index (deterministic for a fixed dimension count, sample count, and
//     skip offset).
//  3. For each sample index the attribute tables are filtered down to the
//     single row matching the already-chosen dependency values, and the
//     point's coordinate for that attribute picks an option by cumulative
//     weight.
//
// Sample indices are independent and resolved concurrently by a bounded
// worker pool. The only shared mutable state is the output table, a
// mutex-guarded append-only CSV; row order across the file is therefore
// arbitrary and only the embedded building index is authoritative.
//
// Failure modes are deliberately asymmetric: a dependency context that
// matches zero table rows is a coverage gap in the input spreadsheets and
// rejects just that sample (logged, skipped), while a context matching more
// than one row means the tables do not define a unique distribution and the
// whole run aborts with NonUniqueDistributionError.
package sampler
