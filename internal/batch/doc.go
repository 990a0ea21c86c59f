// Package batch turns a sampled project into scheduler work and brings
// half-finished campaigns back to life.
//
// A campaign is n_datapoints baseline simulations plus one variant per
// configured upgrade, every unit keyed by (building, upgrade). Partition
// shuffles the full unit set once and slices it into bounded jobs, each
// persisted as jobNNN.json before anything is submitted, so a crash between
// partitioning and submission leaves reconstructable state on disk. The job
// array and its dependent post-processing job then go to the external
// scheduler through the Scheduler interface; the scheduler, not this
// process, honors the dependency.
//
// After a run, ScanForRestarts classifies the scheduler's per-task log
// artifacts: tasks killed for exceeding their walltime are marked for
// resubmission and their logs archived to .bak so a second scan is a no-op.
// Restarted tasks reuse their original jobNNN.json unit lists verbatim.
//
// Within one array task, RunJob executes the job's units through an Executor
// with a bounded worker pool. Executors are idempotent: a unit directory
// already holding a finished or failed marker is skipped, and stale partial
// directories are cleared and redone.
package batch
