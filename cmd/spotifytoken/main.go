package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/config"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/handlers"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/repository"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/services"
)

func main() {
	addr := flag.String("addr", ":8888", "listen address")
	flag.Parse()

	cfg := config.LoadSpotify()
	if cfg.ClientID == "your-client-id" || cfg.ClientSecret == "your-client-secret" {
		log.Println("⚠ SPOTIFY_CLIENT_ID / SPOTIFY_SECRET not set; the exchange will fail")
	}

	auth := services.NewSpotifyAuth(services.SpotifyAuthConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
	}, repository.NewFileTokenStore(cfg.TokenFile))
	h := handlers.NewSpotifyHandler(auth)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Get("/", h.Index)
	r.Get("/callback", h.Callback)

	server := &http.Server{
		Addr:         *addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("✓ Spotify token helper on http://localhost%s", *addr)
	log.Printf("  Redirect URI: %s", auth.RedirectURI())
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
