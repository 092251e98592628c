package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/repository"
)

var SpotifyScopes = []string{"user-read-playback-state", "user-modify-playback-state"}

type SpotifyAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// Endpoint overrides the Spotify accounts endpoint when set.
	Endpoint oauth2.Endpoint
}

// SpotifyAuth runs the authorization-code exchange used to obtain a refresh
// token by hand.
type SpotifyAuth struct {
	conf   *oauth2.Config
	tokens *repository.FileTokenStore
}

func NewSpotifyAuth(cfg SpotifyAuthConfig, tokens *repository.FileTokenStore) *SpotifyAuth {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = spotify.Endpoint
	}

	return &SpotifyAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       SpotifyScopes,
			Endpoint:     endpoint,
		},
		tokens: tokens,
	}
}

func (a *SpotifyAuth) RedirectURI() string {
	return a.conf.RedirectURL
}

func (a *SpotifyAuth) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens and saves them when a
// token store is configured. A failed save is logged, not returned.
func (a *SpotifyAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("no authorization code provided")
	}

	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if a.tokens != nil {
		if err := a.tokens.Save(repository.StoredTokenFrom(tok)); err != nil {
			log.Printf("Failed to save Spotify tokens: %v", err)
		} else {
			log.Printf("Spotify tokens saved to %s", a.tokens.Path())
		}
	}
	return tok, nil
}
