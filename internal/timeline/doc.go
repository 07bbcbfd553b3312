// Package timeline defines the versioned timeline document model.
//
// A Document is the full payload of one immutable TimelineVersion: an
// ordered set of typed tracks, each holding clips of the matching kind.
// Documents are value-like: editing code clones a document, mutates the
// clone, and persists the result as a brand new version. Nothing in this
// package performs I/O.
//
// # Well-formedness
//
// A document is well-formed when every structural invariant holds:
//
//   - clip IDs are unique across the whole document (not just per track)
//   - every clip has a positive span (endMs > startMs)
//   - a clip's type matches the kind of the track that owns it
//   - no clip extends past the document's stated durationMs
//   - subtitle clips carry text (non-empty, at most 500 runes) and no asset
//   - video/audio clips carry an asset, no text, and a volume in [0, 2]
//   - sourceStartMs is never negative
//
// Validate checks all of the above. The command engine only ever produces
// well-formed documents from well-formed inputs, so validation failures at
// save time indicate a caller handing us a hand-built document.
//
// # Canonical serialization
//
// MarshalCanonical is the only serialization used for persistence,
// structural equality, and golden comparison. Subtitle text is NFC
// normalized before it enters a document, so byte equality of canonical
// forms is equivalent to structural equality.
package timeline
