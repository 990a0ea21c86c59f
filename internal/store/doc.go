// Package store provides the SQLite-backed outcome registry for batch runs.
//
// Every simulation unit executed by a job records one row: which batch
// invocation ran it, its building and upgrade indices, and how it ended.
// The post-processing step aggregates these rows into the campaign summary,
// and operators query the database directly when debugging a run.
//
// Writes are idempotent (INSERT OR REPLACE keyed on sim_id) because array
// tasks restarted after a walltime kill re-execute units whose outcome was
// already recorded.
//
// Database configuration follows the usual SQLite service setup:
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: tolerate lock contention between pool workers
//   - single connection: SQLite allows one writer at a time
package store
