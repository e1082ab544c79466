// Package spotify provides the Spotify Web API integration: a
// client-credentials token provider and the playlist fetcher.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"playlistwatch/internal/core"
)

// TokenSource hands out a valid bearer token for outbound catalog calls.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// TokenProvider owns the client-credentials token lease. The underlying
// oauth2 source caches the token and refreshes it only once expired, so a
// batch of checks reuses one lease instead of re-authenticating per call.
type TokenProvider struct {
	config *core.SpotifyConfig
	logger *zap.Logger

	// Overridable for tests.
	tokenURL   string
	httpClient *http.Client

	mu     sync.Mutex
	source oauth2.TokenSource
}

func NewTokenProvider(config *core.SpotifyConfig, logger *zap.Logger) *TokenProvider {
	return &TokenProvider{
		config:   config,
		logger:   logger,
		tokenURL: spotifyauth.TokenURL,
	}
}

// Token returns a valid bearer token, exchanging the configured client
// credentials when no unexpired lease is held. Missing credentials fail
// before any network call.
func (p *TokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	if p.config.ClientID == "" || p.config.ClientSecret == "" {
		return nil, core.ErrMissingCredentials
	}

	token, err := p.tokenSource().Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %s: %s",
				core.ErrAuthFailed, retrieveErr.Response.Status, string(retrieveErr.Body))
		}
		return nil, fmt.Errorf("%w: %v", core.ErrAuthFailed, err)
	}

	return token, nil
}

func (p *TokenProvider) tokenSource() oauth2.TokenSource {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil {
		conf := &clientcredentials.Config{
			ClientID:     p.config.ClientID,
			ClientSecret: p.config.ClientSecret,
			TokenURL:     p.tokenURL,
		}

		// The source outlives any single check, so it is not bound to a
		// per-request context.
		ctx := context.Background()
		if p.httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
		}

		p.source = conf.TokenSource(ctx)
		p.logger.Debug("Created client-credentials token source")
	}

	return p.source
}
