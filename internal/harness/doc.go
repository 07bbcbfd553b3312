// Package harness provides conformance testing for the timeline editing
// core.
//
// Scenarios are YAML files describing an initial document, a command
// batch, and the expected outcome. The harness provisions a fresh
// in-memory store per scenario, saves the initial document, runs the
// commands through the real engine and batch applier, and checks the
// expectation clause. Golden files snapshot the final document in
// canonical JSON.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	fps: 30
//	clipIds: [clip-1]          # ids the engine hands out, in order
//	assets:
//	  - id: a1
//	    status: uploaded
//	document:
//	  durationMs: 10000
//	  tracks:
//	    - id: t-video
//	      kind: video
//	      name: Video 1
//	      clips:
//	        - id: c1
//	          assetId: a1
//	          startMs: 0
//	          endMs: 4000
//	commands:
//	  - type: trimClip
//	    clipId: c1
//	    endMs: 3000
//	expect:
//	  outcome: applied         # applied | no_change | error
//	  version: 3
//	  changedClipIds: [c1]
//	  durationMs: 10000
//
// # Deterministic Execution
//
// Every run uses a frozen clock, a fixed clip-id generator and a fresh
// in-memory SQLite database, so the final document is byte-identical
// across runs and safe to compare against golden files.
package harness
