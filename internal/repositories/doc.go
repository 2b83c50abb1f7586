// Package repositories implements SQLite persistence for snapmix history.
//
// [AnalysisRunRepository] stores one row per photo → recommendations cycle, with atomic sequence generation
// for human-readable ordering (run #1, run #2, ...). Rows are soft deleted via deleted_at timestamps and
// excluded from queries by default.
//
// [RunRecorder] adapts the repository to the pipeline's Recorder interface.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
