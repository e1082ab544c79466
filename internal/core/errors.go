package core

import "errors"

var (
	// ErrMissingCredentials indicates the Spotify client ID or secret is not
	// configured. Surfaced before any network call is made.
	ErrMissingCredentials = errors.New("spotify credentials not configured")

	// ErrAuthFailed indicates the client-credentials token exchange was
	// rejected by the authorization server.
	ErrAuthFailed = errors.New("spotify authentication failed")

	// ErrFetchFailed indicates the metadata request or a page request failed,
	// or the response was malformed.
	ErrFetchFailed = errors.New("playlist fetch failed")

	// ErrSnapshotNotFound indicates no snapshot exists for the playlist ID.
	ErrSnapshotNotFound = errors.New("playlist snapshot not found")

	// ErrDuplicateSnapshot indicates a snapshot for the playlist ID already
	// exists. Possible when two concurrent first checks race on create; the
	// checker treats it as "someone else just created this".
	ErrDuplicateSnapshot = errors.New("playlist snapshot already exists")
)
