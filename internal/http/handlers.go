package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"playlistwatch/internal/core"
)

const (
	defaultListLimit  = 100
	defaultTrackLimit = 50
	// maxTrackLimit is the catalog's page-size ceiling.
	maxTrackLimit = 100
)

// response is the envelope every endpoint answers with. Error detail is
// only populated outside production.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type checkData struct {
	NewSongs     []core.Track       `json:"newSongs"`
	Playlist     *core.PlaylistInfo `json:"playlist,omitempty"`
	EmailSent    bool               `json:"emailSent"`
	IsFirstCheck bool               `json:"isFirstCheck"`
}

type trackPageData struct {
	Tracks []core.Track `json:"tracks"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// handleCheck triggers one synchronous check of the playlist in the path.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	playlistID := r.PathValue("playlistId")

	result := s.checker.CheckPlaylist(r.Context(), playlistID)
	s.ObserveCheckDuration("manual", result.Duration)
	s.RecordNewSongs(len(result.NewSongs))

	if !result.Success {
		s.RecordCheck("manual", "error")
		s.writeError(w, http.StatusInternalServerError, result.Message, result.Err)
		return
	}
	s.RecordCheck("manual", "success")

	if len(result.NewSongs) > 0 && !result.IsFirstCheck {
		status := "sent"
		if !result.EmailSent {
			status = "failed"
		}
		s.RecordNotification(status)
	}

	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: result.Message,
		Data: checkData{
			NewSongs:     result.NewSongs,
			Playlist:     result.Playlist,
			EmailSent:    result.EmailSent,
			IsFirstCheck: result.IsFirstCheck,
		},
	})
}

// handlePlaylistInfo returns current playlist metadata straight from the
// catalog, without touching the snapshot store.
func (s *Server) handlePlaylistInfo(w http.ResponseWriter, r *http.Request) {
	playlistID := r.PathValue("playlistId")

	info, err := s.fetcher.FetchPlaylistInfo(r.Context(), playlistID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve playlist information", err)
		return
	}

	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Playlist information retrieved successfully",
		Data:    info,
	})
}

// handleTracks returns one page of the live track listing.
func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	playlistID := r.PathValue("playlistId")

	// Clamped here so the envelope echoes the limits the fetch actually used.
	limit := queryInt(r, "limit", defaultTrackLimit)
	if limit <= 0 || limit > maxTrackLimit {
		limit = maxTrackLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	tracks, total, err := s.fetcher.FetchTrackPage(r.Context(), playlistID, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve playlist tracks", err)
		return
	}

	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Playlist tracks retrieved successfully",
		Data: trackPageData{
			Tracks: tracks,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// handleListSnapshots returns the stored snapshots ordered by most recently
// checked, without track listings.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.store.ListByLastChecked(r.Context(), queryInt(r, "limit", defaultListLimit))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list playlists", err)
		return
	}

	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Playlists retrieved successfully",
		Data:    snapshots,
	})
}

// handleTestNotification sends a configuration smoke-test message.
func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.notifier.SendTest(r.Context()); err != nil {
		s.RecordNotification("failed")
		s.writeError(w, http.StatusInternalServerError, "Test notification failed", err)
		return
	}

	s.RecordNotification("sent")
	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Test notification sent",
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := response{
		Success: false,
		Message: message,
	}
	if err != nil && s.env != core.EnvProduction {
		resp.Error = err.Error()
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
