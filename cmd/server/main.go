package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/config"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/database"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/handlers"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/middleware"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/repository"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/router"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/services"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/websocket"
)

func main() {
	printToken := flag.Bool("print-admin-token", false, "print a 30-day operator token and exit")
	flag.Parse()

	log.Println("🚀 Starting WhatsApp relay...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	adminAuth := middleware.NewAdminAuth(cfg.AdminJWTSecret)
	if *printToken {
		token, err := adminAuth.GenerateToken("operator", 30*24*time.Hour)
		if err != nil {
			log.Fatalf("✗ Cannot create operator token: %v", err)
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize Redis Clients (optional) ────
	var redisClients *database.RedisClients
	if cfg.RedisURL != "" {
		var err error
		redisClients, err = database.NewRedisClients(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer func() {
			if err := redisClients.Close(); err != nil {
				log.Printf("✗ Redis close: %v", err)
			}
		}()
		log.Println("✓ Redis connected")
	}

	// ──── Step 3: Conversation Store ────
	var conversationStore services.ConversationStore
	switch cfg.ConversationBackend {
	case "postgres":
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")
		conversationStore = repository.NewConversationRepo(pool)
	case "redis":
		if redisClients == nil {
			log.Fatalf("✗ CONVERSATION_BACKEND=redis requires REDIS_URL")
		}
		conversationStore = repository.NewRedisConversationRepo(redisClients.Store)
	default:
		conversationStore = repository.NewMemoryConversationRepo()
	}
	log.Printf("✓ Conversation store: %s", cfg.ConversationBackend)

	var sessionStore services.SessionStore
	if cfg.SessionBackend == "redis" {
		if redisClients == nil {
			log.Fatalf("✗ SESSION_BACKEND=redis requires REDIS_URL")
		}
		sessionStore = repository.NewRedisSessionRepo(redisClients.Store)
	} else {
		memorySessions := repository.NewMemorySessionRepo()
		memorySessions.StartCleanup(ctx, 10*time.Minute)
		sessionStore = memorySessions
	}
	log.Printf("✓ Session store: %s", cfg.SessionBackend)

	// ──── Step 4: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiModel,
		cfg.PersonalityPrompt,
		cfg.GeminiConcurrentReqs,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)

	// ──── Step 5: WAHA Gateway ────
	waha := services.NewWAHAClient(services.WAHAConfig{
		URL:               cfg.WAHAURL,
		APIKey:            cfg.WAHAAPIKey,
		Session:           cfg.WAHASession,
		KeepAliveInterval: cfg.WAHAKeepAliveInterval,
	}, &http.Client{})
	if cfg.WAHAURL == "" {
		log.Println("⚠ WAHA_URL not set; replies cannot be delivered")
	} else {
		waha.StartKeepAlive(ctx)
		log.Printf("✓ WAHA gateway at %s (session %s)", waha.BaseURL(), waha.SessionName())
	}

	// ──── Initialize Services ────
	conversations := services.NewConversationManager(conversationStore, cfg.MaxHistory)
	sessions := services.NewSessionCache(sessionStore, cfg.SessionLifetime)
	assistant := services.NewAssistant(conversations, geminiService, waha, services.AssistantConfig{
		GreetingPrompt:       cfg.GreetingPrompt,
		InitialMessagePrompt: cfg.InitialMessagePrompt,
		FallbackReply:        cfg.FallbackReply,
		ContextMessages:      cfg.ContextMessages,
		TypingDelay:          cfg.TypingDelay,
	})

	// ──── Step 6: Start WebSocket Hub ────
	var pubsub *redis.Client
	if redisClients != nil {
		pubsub = redisClients.PubSub
	}
	wsHub := websocket.NewHub(pubsub, adminAuth)
	wsHub.Start(ctx)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	serviceNames := []string{"whatsapp", "gemini", "conversations"}
	webhookHandler := handlers.NewWebhookHandler(assistant, waha, sessions, wsHub, serviceNames)
	conversationHandler := handlers.NewConversationHandler(conversations)
	gatewayHandler := handlers.NewGatewayHandler(waha)
	sessionHandler := handlers.NewSessionHandler(sessions)

	sendLimiter := middleware.NewRateLimiter(cfg.SendRateLimit, time.Minute)
	sendLimiter.StartCleanup(ctx)

	if !adminAuth.Enabled() {
		log.Println("⚠ ADMIN_JWT_SECRET not set; operator routes are unauthenticated")
	}

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		adminAuth,
		sendLimiter,
		webhookHandler,
		conversationHandler,
		gatewayHandler,
		sessionHandler,
		wsHub,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Covers generation plus a gateway send with fallback.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatalf("✗ Cannot listen on %s: %v", server.Addr, err)
	}

	log.Printf("✓ WhatsApp relay ready on http://localhost:%s", cfg.Port)
	log.Printf("  Webhook: http://localhost:%s/webhook", cfg.Port)
	log.Printf("  WS:      ws://localhost:%s/ws", cfg.Port)

	// Deferred closes of the stores and clients run only after serve
	// has drained in-flight requests.
	if err := serve(ctx, server, ln, 30*time.Second, waha.StopKeepAlive); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("✓ Server stopped")
}

// serve runs server on ln until ctx is done, then shuts it down and returns
// once in-flight requests have finished or drain has elapsed.
func serve(ctx context.Context, server *http.Server, ln net.Listener, drain time.Duration, beforeShutdown func()) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		log.Println("Shutting down...")
		if beforeShutdown != nil {
			beforeShutdown()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("✗ Shutdown did not drain cleanly: %v", err)
		}
	}()

	if err := server.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	<-shutdownDone
	return nil
}
