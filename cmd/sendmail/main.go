package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/config"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/repository"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/services"
)

func main() {
	to := flag.String("to", "", "recipient address")
	subject := flag.String("subject", "", "message subject")
	body := flag.String("body", "", "plain-text body")
	html := flag.String("html", "", "optional HTML body")
	flag.Parse()

	if *to == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadGmail()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gmail, err := services.NewGmailService(ctx, cfg.CredentialsFile, repository.NewFileTokenStore(cfg.TokenFile))
	if err != nil {
		log.Fatalf("✗ Gmail setup failed: %v", err)
	}

	id, err := gmail.SendEmail(ctx, *to, *subject, *body, *html)
	if err != nil {
		log.Fatalf("✗ Send failed: %v", err)
	}
	if gmail.DevMode() {
		log.Println("✓ Logged message (dev mode, nothing sent)")
		return
	}
	log.Printf("✓ Sent message %s", id)
}
