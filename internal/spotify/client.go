package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"playlistwatch/internal/core"
)

// pageSize is the Spotify API maximum for playlist item pages.
const pageSize = 100

// addedAtLayout is the timestamp format Spotify reports for added_at.
const addedAtLayout = "2006-01-02T15:04:05Z"

// Client fetches playlist metadata and track listings. It implements
// core.PlaylistFetcher.
type Client struct {
	tokens TokenSource
	logger *zap.Logger

	// Overridable for tests; replaces the bearer-token client.
	httpClient *http.Client
}

func NewClient(tokens TokenSource, logger *zap.Logger) *Client {
	return &Client{
		tokens: tokens,
		logger: logger,
	}
}

// FetchPlaylist retrieves playlist metadata once, then pages through the
// complete track listing. Metadata is captured at the start of the call; a
// playlist mutated mid-fetch can mix old metadata with newer pages, which is
// an accepted race. Any page failure aborts the whole fetch so callers never
// diff against an incomplete listing.
func (c *Client) FetchPlaylist(ctx context.Context, playlistID string) (*core.PlaylistInfo, []core.Track, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, nil, err
	}

	info, err := c.playlistInfo(ctx, api, playlistID)
	if err != nil {
		return nil, nil, err
	}

	var tracks []core.Track
	offset := 0

	for {
		page, err := api.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(pageSize), spotify.Offset(offset))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: page at offset %d: %v", core.ErrFetchFailed, offset, err)
		}

		tracks = append(tracks, decodeItems(page.Items, offset)...)

		offset += pageSize
		if offset >= page.Total || len(page.Items) == 0 {
			break
		}
	}

	c.logger.Info("Fetched playlist",
		zap.String("playlistID", playlistID),
		zap.String("name", info.Name),
		zap.Int("tracks", len(tracks)),
		zap.Int("reportedTotal", info.Total))

	return info, tracks, nil
}

// FetchPlaylistInfo retrieves metadata only.
func (c *Client) FetchPlaylistInfo(ctx context.Context, playlistID string) (*core.PlaylistInfo, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	return c.playlistInfo(ctx, api, playlistID)
}

// FetchTrackPage retrieves a single page of the track listing, along with
// the server-reported total.
func (c *Client) FetchTrackPage(ctx context.Context, playlistID string, limit, offset int) ([]core.Track, int, error) {
	if limit <= 0 || limit > pageSize {
		limit = pageSize
	}
	if offset < 0 {
		offset = 0
	}

	api, err := c.api(ctx)
	if err != nil {
		return nil, 0, err
	}

	page, err := api.GetPlaylistItems(ctx, spotify.ID(playlistID),
		spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: page at offset %d: %v", core.ErrFetchFailed, offset, err)
	}

	return decodeItems(page.Items, offset), page.Total, nil
}

// api builds a Spotify API client carrying a fresh bearer token. A new
// client per call keeps the token lease logic entirely in the provider.
func (c *Client) api(ctx context.Context) (*spotify.Client, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	}

	return spotify.New(httpClient), nil
}

func (c *Client) playlistInfo(ctx context.Context, api *spotify.Client, playlistID string) (*core.PlaylistInfo, error) {
	playlist, err := api.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", core.ErrFetchFailed, err)
	}

	return &core.PlaylistInfo{
		Name:       playlist.Name,
		Owner:      playlist.Owner.DisplayName,
		SpotifyURL: playlist.ExternalURLs["spotify"],
		Total:      playlist.Tracks.Total,
	}, nil
}

// decodeItems converts one page of playlist items. Entries whose underlying
// media is missing (nil track, e.g. removed or an episode) or that lack an
// ID (local files) are skipped; their slot still counts toward position, so
// numbering keeps a gap where they were.
func decodeItems(items []spotify.PlaylistItem, offset int) []core.Track {
	tracks := make([]core.Track, 0, len(items))

	for i := range items {
		full := items[i].Track.Track
		if full == nil || full.ID == "" {
			continue
		}

		tracks = append(tracks, core.Track{
			TrackID:  string(full.ID),
			Name:     full.Name,
			Artists:  joinArtists(full.Artists),
			Album:    full.Album.Name,
			AddedAt:  parseAddedAt(items[i].AddedAt),
			Position: offset + i + 1,
		})
	}

	return tracks
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}

func parseAddedAt(value string) time.Time {
	parsed, err := time.Parse(addedAtLayout, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
