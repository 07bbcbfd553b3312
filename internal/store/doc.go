// Package store provides SQLite-backed durable storage for timelines and
// their version logs.
//
// Layout:
//   - timelines: head records (one row per timeline, latest_version pointer)
//   - timeline_versions: append-only snapshots, PRIMARY KEY (timeline_id, version)
//   - assets: per-project media registry with upload status
//
// The version log is never updated or deleted; the only mutable field in
// the whole schema (besides asset status) is timelines.latest_version. The
// two conditional writes the save protocol needs map directly onto SQL:
//
//   - insert-if-absent: INSERT ... ON CONFLICT DO NOTHING, RowsAffected
//   - pointer CAS: UPDATE ... WHERE latest_version = expected, RowsAffected
//
// Version rows store the document as canonical JSON (see
// timeline.MarshalCanonical), so byte comparison of stored data equals
// structural equality and every version is independently reconstructable.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// A Postgres implementation of the same surface lives in postgres.go for
// deployments that outgrow a single file.
package store
