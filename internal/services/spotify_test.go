package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/repository"
)

func TestSpotifyAuth_AuthURL(t *testing.T) {
	auth := NewSpotifyAuth(SpotifyAuthConfig{
		ClientID:    "client",
		RedirectURI: "http://localhost:8888/callback",
	}, nil)

	u, err := url.Parse(auth.AuthURL("xyz"))
	if err != nil {
		t.Fatalf("invalid auth url: %v", err)
	}
	if u.Host != "accounts.spotify.com" {
		t.Fatalf("expected Spotify accounts host, got %q", u.Host)
	}
	q := u.Query()
	if q.Get("client_id") != "client" || q.Get("state") != "xyz" || q.Get("response_type") != "code" {
		t.Fatalf("unexpected query: %v", q)
	}
	if q.Get("scope") != "user-read-playback-state user-modify-playback-state" {
		t.Fatalf("unexpected scope: %q", q.Get("scope"))
	}
	if auth.RedirectURI() != "http://localhost:8888/callback" {
		t.Fatalf("unexpected redirect uri %q", auth.RedirectURI())
	}
}

func TestSpotifyAuth_ExchangeSavesToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm error: %v", err)
		}
		if r.Form.Get("code") != "abc" {
			t.Errorf("expected code abc, got %q", r.Form.Get("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	tokens := repository.NewFileTokenStore(filepath.Join(t.TempDir(), "spotify_tokens.json"))
	auth := NewSpotifyAuth(SpotifyAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:8888/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: tokenSrv.URL + "/authorize", TokenURL: tokenSrv.URL + "/api/token"},
	}, tokens)

	tok, err := auth.Exchange(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Exchange error: %v", err)
	}
	if tok.RefreshToken != "rt" {
		t.Fatalf("expected refresh token rt, got %q", tok.RefreshToken)
	}

	stored, err := tokens.Load()
	if err != nil || stored == nil {
		t.Fatalf("expected stored token, got %v, %v", stored, err)
	}
	if stored.RefreshToken != "rt" || stored.AccessToken != "at" {
		t.Fatalf("unexpected stored token: %#v", stored)
	}
}

func TestSpotifyAuth_ExchangeErrors(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenSrv.Close()

	auth := NewSpotifyAuth(SpotifyAuthConfig{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{TokenURL: tokenSrv.URL},
	}, nil)

	if _, err := auth.Exchange(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty code")
	}
	_, err := auth.Exchange(context.Background(), "bad")
	if err == nil || !strings.Contains(err.Error(), "exchange") {
		t.Fatalf("expected exchange error, got %v", err)
	}
}
