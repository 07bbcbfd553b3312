package engine

import (
	"sort"

	"github.com/haldane/cutroom/internal/timeline"
)

// renormalize restores document-wide ordering guarantees after a mutation:
// clips within each track are re-sorted by (startMs, id) for stable display
// order, and durationMs is raised — never lowered — to the rightmost clip
// end so no clip extends past the document's stated length.
func renormalize(d *timeline.Document) {
	maxEnd := d.DurationMs
	for i := range d.Tracks {
		clips := d.Tracks[i].Clips
		sort.SliceStable(clips, func(a, b int) bool {
			if clips[a].StartMs != clips[b].StartMs {
				return clips[a].StartMs < clips[b].StartMs
			}
			return clips[a].ID < clips[b].ID
		})
		for j := range clips {
			if clips[j].EndMs > maxEnd {
				maxEnd = clips[j].EndMs
			}
		}
	}
	d.DurationMs = maxEnd
}
