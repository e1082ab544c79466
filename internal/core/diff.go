package core

import (
	"playlistwatch/pkg/idset"
)

// Diff returns the tracks present in fresh but absent from stored, compared
// by TrackID only. The result is an order-preserving subsequence of fresh.
// Reorderings, metadata edits and removals are not detected; removed tracks
// simply vanish when the snapshot is replaced wholesale.
func Diff(stored, fresh []Track) []Track {
	ids := make([]string, 0, len(stored))
	for _, t := range stored {
		ids = append(ids, t.TrackID)
	}
	seen := idset.FromIDs(ids)

	var added []Track
	for _, t := range fresh {
		if t.TrackID == "" {
			continue
		}
		if !seen.Has(t.TrackID) {
			added = append(added, t)
		}
	}
	return added
}
