package core

import (
	"testing"
)

func tracksFromIDs(ids ...string) []Track {
	tracks := make([]Track, 0, len(ids))
	for i, id := range ids {
		tracks = append(tracks, Track{
			TrackID:  id,
			Name:     "Track " + id,
			Position: i + 1,
		})
	}
	return tracks
}

func diffIDs(result []Track) []string {
	ids := make([]string, 0, len(result))
	for _, t := range result {
		ids = append(ids, t.TrackID)
	}
	return ids
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		stored []Track
		fresh  []Track
		want   []string
	}{
		{
			name:   "identical sequences yield nothing",
			stored: tracksFromIDs("a", "b", "c"),
			fresh:  tracksFromIDs("a", "b", "c"),
			want:   nil,
		},
		{
			name:   "empty stored yields everything",
			stored: nil,
			fresh:  tracksFromIDs("a", "b"),
			want:   []string{"a", "b"},
		},
		{
			name:   "empty fresh yields nothing",
			stored: tracksFromIDs("a", "b"),
			fresh:  nil,
			want:   nil,
		},
		{
			name:   "one appended track",
			stored: tracksFromIDs("a", "b"),
			fresh:  tracksFromIDs("a", "b", "c"),
			want:   []string{"c"},
		},
		{
			name:   "new tracks keep fresh order",
			stored: tracksFromIDs("b"),
			fresh:  tracksFromIDs("c", "b", "a"),
			want:   []string{"c", "a"},
		},
		{
			name:   "removals are not reported",
			stored: tracksFromIDs("a", "b", "c"),
			fresh:  tracksFromIDs("a"),
			want:   nil,
		},
		{
			name:   "reorder without additions yields nothing",
			stored: tracksFromIDs("a", "b", "c"),
			fresh:  tracksFromIDs("c", "a", "b"),
			want:   nil,
		},
		{
			name:   "fresh track without ID is skipped",
			stored: tracksFromIDs("a"),
			fresh:  []Track{{TrackID: "a"}, {TrackID: "", Name: "local file"}, {TrackID: "b"}},
			want:   []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diffIDs(Diff(tt.stored, tt.fresh))

			if len(got) != len(tt.want) {
				t.Fatalf("Diff() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Diff() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDiff_PreservesTrackFields(t *testing.T) {
	stored := tracksFromIDs("a", "b")
	fresh := []Track{
		{TrackID: "a", Name: "Track a", Position: 1},
		{TrackID: "b", Name: "Track b", Position: 2},
		{TrackID: "c", Name: "Track c", Artists: "Artist One, Artist Two", Album: "Album", Position: 3},
	}

	got := Diff(stored, fresh)
	if len(got) != 1 {
		t.Fatalf("Expected one new track, got %d", len(got))
	}

	if got[0] != fresh[2] {
		t.Errorf("New track should be returned unchanged: got %+v, want %+v", got[0], fresh[2])
	}
}
