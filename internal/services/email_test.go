package services

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emersion/go-message/mail"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/repository"
)

func TestComposeMessage_PlainText(t *testing.T) {
	raw, err := composeMessage("bot@example.com", "user@example.com", "Hello", "plain body", "")
	if err != nil {
		t.Fatalf("composeMessage error: %v", err)
	}

	r, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateReader error: %v", err)
	}
	subject, _ := r.Header.Subject()
	if subject != "Hello" {
		t.Fatalf("expected subject Hello, got %q", subject)
	}
	to, _ := r.Header.AddressList("To")
	if len(to) != 1 || to[0].Address != "user@example.com" {
		t.Fatalf("unexpected To header: %#v", to)
	}

	part, err := r.NextPart()
	if err != nil {
		t.Fatalf("NextPart error: %v", err)
	}
	body, _ := io.ReadAll(part.Body)
	if string(body) != "plain body" {
		t.Fatalf("expected plain body, got %q", body)
	}
}

func TestComposeMessage_Alternative(t *testing.T) {
	raw, err := composeMessage("", "user@example.com", "Report", "text version", "<p>html version</p>")
	if err != nil {
		t.Fatalf("composeMessage error: %v", err)
	}
	if !strings.Contains(string(raw), "multipart/alternative") {
		t.Fatalf("expected multipart/alternative message")
	}

	r, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateReader error: %v", err)
	}

	var bodies []string
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart error: %v", err)
		}
		b, _ := io.ReadAll(part.Body)
		bodies = append(bodies, string(b))
	}
	if len(bodies) != 2 || bodies[0] != "text version" || bodies[1] != "<p>html version</p>" {
		t.Fatalf("unexpected parts: %#v", bodies)
	}
}

func TestComposeMessage_InvalidRecipient(t *testing.T) {
	if _, err := composeMessage("", "not an address", "s", "b", ""); err == nil {
		t.Fatalf("expected error for invalid recipient")
	}
}

func TestNewGmailService_DevModeWithoutToken(t *testing.T) {
	tokens := repository.NewFileTokenStore(filepath.Join(t.TempDir(), "google_tokens.json"))
	svc, err := NewGmailService(context.Background(), "", tokens)
	if err != nil {
		t.Fatalf("NewGmailService error: %v", err)
	}
	if !svc.DevMode() {
		t.Fatalf("expected dev mode without credentials")
	}

	id, err := svc.SendEmail(context.Background(), "user@example.com", "Hi", "body", "")
	if err != nil || id != "" {
		t.Fatalf("expected dev-mode send to succeed without id, got id=%q err=%v", id, err)
	}
	if _, err := svc.SendEmail(context.Background(), "", "Hi", "body", ""); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}
