// Package engine contains the timeline editing core: the pure command
// engine, the optimistic-concurrency save protocol, and the agent batch
// applier.
//
// # Command engine
//
// Engine.Apply maps (document, command) to a new document. It is pure and
// deterministic given an injected clip-id generator, and it never raises:
// a command that cannot legally apply returns the input document unchanged
// (Outcome.Changed == false). The caller decides whether an unchanged
// outcome is a failure — the autosave path shrugs, the agent batch path
// aborts the whole batch.
//
// Apply only ever produces well-formed documents from well-formed inputs.
// After every successful mutation the document is renormalized: clips
// re-sorted by (startMs, id) within each track, and durationMs raised
// (never lowered) to cover the rightmost clip end.
//
// # Save protocol
//
// Saver.Save is the concurrency-control heart. Writers proceed without
// locks and detect races only at commit time:
//
//  1. validate the candidate document (structure, then asset references)
//  2. read the timeline head; mismatch with the expected base is a conflict
//  3. insert the version row at base+1, guarded by the (timeline, version)
//     uniqueness constraint; a lost insert is the same conflict
//  4. advance the latestVersion pointer only if it still equals the base;
//     a lost pointer update is the same conflict (the version row stays —
//     the log is append-only and never rolled back)
//
// Conflict is a data condition, not a defect: re-read, re-decide, retry.
// The protocol never auto-merges.
//
// # Batch applier
//
// BatchApplier applies one AI tool call's worth of commands against a
// single fetched snapshot, all-or-nothing, and retries the whole batch
// exactly once on conflict. A second conflict is terminal and is handed
// back to the caller.
package engine
