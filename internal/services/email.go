package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/emersion/go-message/mail"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/repository"
)

var gmailScopes = []string{gmail.GmailSendScope, gmail.GmailReadonlyScope}

// GmailService sends mail through the Gmail API using a stored OAuth token.
// Without credentials it runs in dev mode and only logs.
type GmailService struct {
	service *gmail.Service
	devMode bool
}

func NewGmailService(ctx context.Context, credentialsPath string, tokens *repository.FileTokenStore, opts ...option.ClientOption) (*GmailService, error) {
	stored, err := tokens.Load()
	if err != nil {
		return nil, err
	}

	conf, err := gmailOAuthConfig(credentialsPath, stored)
	if err != nil {
		return nil, err
	}
	if conf == nil || stored == nil || (stored.RefreshToken == "" && stored.AccessToken == "") {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
		return &GmailService{devMode: true}, nil
	}

	ts := conf.TokenSource(ctx, stored.OAuth2())
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)

	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailService{service: srv}, nil
}

// gmailOAuthConfig prefers the client credentials file and falls back to the
// client id and secret saved alongside the token. nil means neither exists.
func gmailOAuthConfig(credentialsPath string, stored *repository.StoredToken) (*oauth2.Config, error) {
	if credentialsPath != "" {
		data, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		conf, err := google.ConfigFromJSON(data, gmailScopes...)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials file %s: %w", credentialsPath, err)
		}
		return conf, nil
	}

	if stored != nil && stored.ClientID != "" && stored.ClientSecret != "" {
		return &oauth2.Config{
			ClientID:     stored.ClientID,
			ClientSecret: stored.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       gmailScopes,
		}, nil
	}
	return nil, nil
}

func (s *GmailService) DevMode() bool {
	return s.devMode
}

// SendEmail sends one message and returns its Gmail id. htmlBody is optional;
// when set the message is multipart/alternative.
func (s *GmailService) SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) (string, error) {
	if to == "" {
		return "", errors.New("recipient is required")
	}

	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		log.Printf("📧 Body:\n%s", textBody)
		return "", nil
	}

	from := ""
	if profile, err := s.service.Users.GetProfile("me").Context(ctx).Do(); err == nil {
		from = profile.EmailAddress
	}

	raw, err := composeMessage(from, to, subject, textBody, htmlBody)
	if err != nil {
		return "", err
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := s.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s (%s)", to, subject, sent.Id)
	return sent.Id, nil
}

func composeMessage(from, to, subject, textBody, htmlBody string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(subject)

	if from != "" {
		addr, err := mail.ParseAddress(from)
		if err != nil {
			return nil, fmt.Errorf("parse from address %q: %w", from, err)
		}
		h.SetAddressList("From", []*mail.Address{addr})
	}

	toAddr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("parse to address %q: %w", to, err)
	}
	h.SetAddressList("To", []*mail.Address{toAddr})

	var buf bytes.Buffer

	if htmlBody == "" {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, fmt.Errorf("create mail writer: %w", err)
		}
		if _, err := io.WriteString(w, textBody); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	iw, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create mail writer: %w", err)
	}
	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=utf-8", textBody},
		{"text/html; charset=utf-8", htmlBody},
	}
	for _, part := range parts {
		var ph mail.InlineHeader
		ph.Set("Content-Type", part.contentType)
		pw, err := iw.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("create %s part: %w", part.contentType, err)
		}
		if _, err := io.WriteString(pw, part.body); err != nil {
			return nil, err
		}
		if err := pw.Close(); err != nil {
			return nil, err
		}
	}
	if err := iw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
