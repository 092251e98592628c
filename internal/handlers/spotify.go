package handlers

import (
	"context"
	"html/template"
	"log"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type spotifyExchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	RedirectURI() string
}

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>Spotify Token Generator</title></head>
<body>
<h1>Spotify Token Generator</h1>
<p>Redirect URI: <code>{{.RedirectURI}}</code></p>
<p><a href="{{.AuthURL}}">Authorize with Spotify</a></p>
</body></html>`))

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html><head><title>Spotify Token Generator</title></head>
<body>
{{if .Error}}
<h1>Authorization failed</h1>
<p>{{.Error}}</p>
<p><a href="/">Try again</a></p>
{{else}}
<h1>Authorization successful</h1>
<p>Add this to your environment:</p>
<pre>SPOTIFY_REFRESH_TOKEN={{.RefreshToken}}</pre>
<p>Access token: <code>{{.AccessToken}}</code></p>
<p>Expires: {{.Expiry}}</p>
{{end}}
</body></html>`))

type callbackView struct {
	Error        string
	RefreshToken string
	AccessToken  string
	Expiry       string
}

// SpotifyHandler serves the one-off authorization flow used to mint a
// refresh token.
type SpotifyHandler struct {
	auth  spotifyExchanger
	state string
}

func NewSpotifyHandler(auth spotifyExchanger) *SpotifyHandler {
	return &SpotifyHandler{auth: auth, state: uuid.NewString()}
}

func (h *SpotifyHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexPage.Execute(w, map[string]string{
		"RedirectURI": h.auth.RedirectURI(),
		"AuthURL":     h.auth.AuthURL(h.state),
	})
}

func (h *SpotifyHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		renderCallback(w, http.StatusBadRequest, callbackView{Error: "Spotify returned: " + errParam})
		return
	}
	if state := q.Get("state"); state != "" && state != h.state {
		renderCallback(w, http.StatusBadRequest, callbackView{Error: "State mismatch"})
		return
	}
	code := q.Get("code")
	if code == "" {
		renderCallback(w, http.StatusBadRequest, callbackView{Error: "No authorization code received"})
		return
	}

	tok, err := h.auth.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("Spotify token exchange failed: %v", err)
		renderCallback(w, http.StatusInternalServerError, callbackView{Error: err.Error()})
		return
	}

	view := callbackView{
		RefreshToken: tok.RefreshToken,
		AccessToken:  tok.AccessToken,
	}
	if !tok.Expiry.IsZero() {
		view.Expiry = tok.Expiry.Format("2006-01-02 15:04:05 MST")
	}
	renderCallback(w, http.StatusOK, view)
}

func renderCallback(w http.ResponseWriter, status int, view callbackView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	callbackPage.Execute(w, view)
}
