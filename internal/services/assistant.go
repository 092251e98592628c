package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

// ReplyGenerator produces assistant text. GeminiService is the production
// implementation.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, history []models.ChatMessage, message string) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// MessageSender delivers a message to a phone number through the gateway.
type MessageSender interface {
	SendMessage(ctx context.Context, phone, text string) error
}

type typingIndicator interface {
	ShowTyping(ctx context.Context, phone string, d time.Duration) error
}

type AssistantConfig struct {
	GreetingPrompt       string
	InitialMessagePrompt string
	FallbackReply        string
	ContextMessages      int
	TypingDelay          time.Duration
}

type Assistant struct {
	conversations *ConversationManager
	replies       ReplyGenerator
	sender        MessageSender
	cfg           AssistantConfig
}

func NewAssistant(conversations *ConversationManager, replies ReplyGenerator, sender MessageSender, cfg AssistantConfig) *Assistant {
	if cfg.ContextMessages <= 0 {
		cfg.ContextMessages = DefaultContextMessages
	}
	return &Assistant{
		conversations: conversations,
		replies:       replies,
		sender:        sender,
		cfg:           cfg,
	}
}

// ProcessMessage records the inbound text and returns the reply to send. A
// failed generation falls back to the configured canned reply.
func (a *Assistant) ProcessMessage(ctx context.Context, phone, text string) (string, error) {
	history, err := a.conversations.GetContext(ctx, phone, a.cfg.ContextMessages)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation for %s: %w", phone, err)
	}

	prompt := text
	if len(history) == 0 && a.cfg.GreetingPrompt != "" {
		log.Printf("First interaction with %s", phone)
		prompt = fmt.Sprintf("%s\n\nTheir first message: %s", a.cfg.GreetingPrompt, text)
	}

	a.showTyping(ctx, phone)

	reply, err := a.replies.GenerateReply(ctx, history, prompt)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		log.Printf("Reply generation for %s failed, using fallback: %v", phone, err)
		reply = a.cfg.FallbackReply
	}

	if err := a.conversations.AddMessage(ctx, phone, models.RoleUser, text); err != nil {
		log.Printf("Failed to record message from %s: %v", phone, err)
	}
	if err := a.conversations.AddMessage(ctx, phone, models.RoleAssistant, reply); err != nil {
		log.Printf("Failed to record reply to %s: %v", phone, err)
	}

	return reply, nil
}

// InitiateConversation sends a generated opening message to phone.
func (a *Assistant) InitiateConversation(ctx context.Context, phone string) error {
	log.Printf("Initiating new conversation with %s", phone)

	message, err := a.replies.Generate(ctx, a.cfg.InitialMessagePrompt)
	if err != nil {
		return fmt.Errorf("failed to generate initial message: %w", err)
	}

	a.showTyping(ctx, phone)
	return a.SendDirect(ctx, phone, message)
}

// SendDirect sends text as-is and records it as an assistant turn.
func (a *Assistant) SendDirect(ctx context.Context, phone, text string) error {
	if err := a.sender.SendMessage(ctx, phone, text); err != nil {
		return err
	}
	if err := a.conversations.AddMessage(ctx, phone, models.RoleAssistant, text); err != nil {
		log.Printf("Failed to record outbound message to %s: %v", phone, err)
	}
	return nil
}

func (a *Assistant) showTyping(ctx context.Context, phone string) {
	if a.cfg.TypingDelay <= 0 {
		return
	}
	typer, ok := a.sender.(typingIndicator)
	if !ok {
		return
	}
	if err := typer.ShowTyping(ctx, phone, a.cfg.TypingDelay); err != nil {
		log.Printf("Typing indicator for %s failed: %v", phone, err)
	}
}
