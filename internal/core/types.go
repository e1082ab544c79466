package core

import (
	"context"
	"time"
)

// Track is a single playlist entry as observed at fetch time. TrackID is the
// domain key for comparison; entries without one are dropped during fetch.
type Track struct {
	TrackID  string    `json:"trackId"`
	Name     string    `json:"name"`
	Artists  string    `json:"artists"`
	Album    string    `json:"album"`
	AddedAt  time.Time `json:"addedAt"`
	Position int       `json:"position"`
}

// PlaylistInfo is playlist metadata captured once at the start of a fetch.
type PlaylistInfo struct {
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	SpotifyURL string `json:"spotifyUrl"`
	Total      int    `json:"total"`
}

// PlaylistSnapshot is the durable record of one monitored playlist: the last
// observed metadata and full track listing. Tracks are replaced wholesale on
// update, never merged incrementally.
type PlaylistSnapshot struct {
	PlaylistID   string    `json:"playlistId"`
	PlaylistName string    `json:"playlistName"`
	Owner        string    `json:"owner"`
	SpotifyURL   string    `json:"spotifyUrl"`
	TotalSongs   int       `json:"totalSongs"`
	Tracks       []Track   `json:"tracks,omitempty"`
	LastChecked  time.Time `json:"lastChecked"`
}

// CheckResult is the outcome of one playlist check. It is never persisted.
type CheckResult struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	NewSongs     []Track       `json:"newSongs"`
	Playlist     *PlaylistInfo `json:"playlist,omitempty"`
	EmailSent    bool          `json:"emailSent"`
	IsFirstCheck bool          `json:"isFirstCheck"`
	Duration     time.Duration `json:"-"`
	Err          error         `json:"-"`
}

// PlaylistCheck pairs a CheckResult with the playlist it belongs to, for
// batch runs.
type PlaylistCheck struct {
	PlaylistID string `json:"playlistId"`
	CheckResult
}

// PlaylistFetcher retrieves playlist metadata and the complete ordered track
// listing from the external catalog.
type PlaylistFetcher interface {
	FetchPlaylist(ctx context.Context, playlistID string) (*PlaylistInfo, []Track, error)
	FetchPlaylistInfo(ctx context.Context, playlistID string) (*PlaylistInfo, error)
	FetchTrackPage(ctx context.Context, playlistID string, limit, offset int) ([]Track, int, error)
}

// SnapshotStore persists the last known state per playlist ID. Only the
// latest snapshot exists per playlist; no history is retained.
type SnapshotStore interface {
	FindByPlaylistID(ctx context.Context, playlistID string) (*PlaylistSnapshot, error)
	Create(ctx context.Context, snapshot *PlaylistSnapshot) error
	ReplaceTracks(ctx context.Context, playlistID string, info *PlaylistInfo, tracks []Track, checkedAt time.Time) error
	TouchLastChecked(ctx context.Context, playlistID string, checkedAt time.Time) error
	ListByLastChecked(ctx context.Context, limit int) ([]*PlaylistSnapshot, error)
}

// Notifier delivers a "new songs" notification. Delivery failure never
// blocks snapshot persistence.
type Notifier interface {
	Notify(ctx context.Context, playlistName string, newSongs []Track) error
	SendTest(ctx context.Context) error
}

// CheckMetrics receives counters from check runs. Implemented by the HTTP
// server's prometheus registry; a nil CheckMetrics is a no-op.
type CheckMetrics interface {
	RecordCheck(trigger, status string)
	RecordNewSongs(count int)
	RecordNotification(status string)
	ObserveCheckDuration(trigger string, duration time.Duration)
}
