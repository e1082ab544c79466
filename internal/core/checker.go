package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Checker composes token acquisition, playlist fetching, snapshot storage,
// diffing and notification into one playlist-check operation.
type Checker struct {
	fetcher  PlaylistFetcher
	store    SnapshotStore
	notifier Notifier
	logger   *zap.Logger

	now func() time.Time
}

func NewChecker(fetcher PlaylistFetcher, store SnapshotStore, notifier Notifier, logger *zap.Logger) *Checker {
	return &Checker{
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckPlaylist runs one full check of a playlist. Every failure is folded
// into the returned CheckResult; nothing propagates to the caller as an
// error, so a batch can never be aborted by a single playlist.
func (c *Checker) CheckPlaylist(ctx context.Context, playlistID string) CheckResult {
	start := time.Now()
	result := c.check(ctx, playlistID)
	result.Duration = time.Since(start)
	return result
}

func (c *Checker) check(ctx context.Context, playlistID string) CheckResult {
	c.logger.Debug("Checking playlist for changes", zap.String("playlistID", playlistID))

	info, tracks, err := c.fetcher.FetchPlaylist(ctx, playlistID)
	if err != nil {
		if errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrAuthFailed) {
			return c.failure(playlistID, "Failed to authenticate with Spotify", err)
		}
		return c.failure(playlistID, "Failed to fetch playlist from Spotify", err)
	}

	checkedAt := c.now()

	stored, err := c.store.FindByPlaylistID(ctx, playlistID)
	if errors.Is(err, ErrSnapshotNotFound) {
		return c.firstCheck(ctx, playlistID, info, tracks, checkedAt)
	}
	if err != nil {
		return c.failure(playlistID, "Failed to load stored playlist", err)
	}

	return c.update(ctx, playlistID, info, tracks, stored, checkedAt)
}

// CheckAll checks each playlist in sequence, one request in flight at a
// time, and collects one result per ID. A failed playlist never aborts the
// batch.
func (c *Checker) CheckAll(ctx context.Context, playlistIDs []string) []PlaylistCheck {
	results := make([]PlaylistCheck, 0, len(playlistIDs))
	for _, id := range playlistIDs {
		results = append(results, PlaylistCheck{
			PlaylistID:  id,
			CheckResult: c.CheckPlaylist(ctx, id),
		})
	}
	return results
}

// firstCheck establishes the snapshot for a playlist seen for the first
// time. No notification is sent; there is nothing to compare against.
func (c *Checker) firstCheck(ctx context.Context, playlistID string, info *PlaylistInfo, tracks []Track, checkedAt time.Time) CheckResult {
	snapshot := &PlaylistSnapshot{
		PlaylistID:   playlistID,
		PlaylistName: info.Name,
		Owner:        info.Owner,
		SpotifyURL:   info.SpotifyURL,
		TotalSongs:   info.Total,
		Tracks:       tracks,
		LastChecked:  checkedAt,
	}

	if err := c.store.Create(ctx, snapshot); err != nil {
		if errors.Is(err, ErrDuplicateSnapshot) {
			// A concurrent check won the create race. Re-read its snapshot
			// and continue as a regular update instead of failing.
			c.logger.Info("Snapshot already created by concurrent check",
				zap.String("playlistID", playlistID))

			stored, findErr := c.store.FindByPlaylistID(ctx, playlistID)
			if findErr != nil {
				return c.failure(playlistID, "Failed to load stored playlist", findErr)
			}
			return c.update(ctx, playlistID, info, tracks, stored, checkedAt)
		}
		return c.failure(playlistID, "Failed to store playlist", err)
	}

	c.logger.Info("Playlist stored for the first time",
		zap.String("playlistID", playlistID),
		zap.String("name", info.Name),
		zap.Int("tracks", len(tracks)))

	return CheckResult{
		Success:      true,
		Message:      "Playlist stored for first time",
		NewSongs:     []Track{},
		Playlist:     info,
		IsFirstCheck: true,
	}
}

func (c *Checker) update(ctx context.Context, playlistID string, info *PlaylistInfo, tracks []Track, stored *PlaylistSnapshot, checkedAt time.Time) CheckResult {
	newSongs := Diff(stored.Tracks, tracks)

	if len(newSongs) == 0 {
		if err := c.store.TouchLastChecked(ctx, playlistID, checkedAt); err != nil {
			return c.failure(playlistID, "Failed to update last checked time", err)
		}

		c.logger.Info("No changes in playlist",
			zap.String("playlistID", playlistID),
			zap.String("name", info.Name))

		return CheckResult{
			Success:  true,
			Message:  "No new songs",
			NewSongs: []Track{},
			Playlist: info,
		}
	}

	c.logger.Info("Found new songs in playlist",
		zap.String("playlistID", playlistID),
		zap.String("name", info.Name),
		zap.Int("newSongs", len(newSongs)))

	// The notification is dispatched before the snapshot is replaced, but a
	// failed delivery must not hold the snapshot back: otherwise a transient
	// mail outage would re-report the same songs on every later check.
	emailSent := true
	if err := c.notifier.Notify(ctx, info.Name, newSongs); err != nil {
		emailSent = false
		c.logger.Error("Failed to send notification",
			zap.String("playlistID", playlistID),
			zap.Error(err))
	}

	if err := c.store.ReplaceTracks(ctx, playlistID, info, tracks, checkedAt); err != nil {
		return c.failure(playlistID, "Failed to update stored playlist", err)
	}

	return CheckResult{
		Success:   true,
		Message:   fmt.Sprintf("Found %d new song(s)", len(newSongs)),
		NewSongs:  newSongs,
		Playlist:  info,
		EmailSent: emailSent,
	}
}

func (c *Checker) failure(playlistID, message string, err error) CheckResult {
	c.logger.Error("Playlist check failed",
		zap.String("playlistID", playlistID),
		zap.String("reason", message),
		zap.Error(err))

	return CheckResult{
		Success:  false,
		Message:  message,
		NewSongs: []Track{},
		Err:      err,
	}
}
