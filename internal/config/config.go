package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Storage backends
	ConversationBackend string // memory, redis or postgres
	SessionBackend      string // memory or redis
	DatabaseURL         string
	RedisURL            string
	MigrationsDir       string

	// Conversation
	MaxHistory      int
	ContextMessages int
	SessionLifetime time.Duration

	// WAHA gateway
	WAHAURL               string
	WAHAAPIKey            string
	WAHASession           string
	WAHAKeepAliveInterval time.Duration

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Prompts
	PersonalityPrompt    string
	GreetingPrompt       string
	InitialMessagePrompt string
	FallbackReply        string
	TypingDelay          time.Duration

	// Operator access
	AdminJWTSecret string
	SendRateLimit  int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port: getEnvOrDefault("PORT", "5000"),
		Env:  getEnvOrDefault("ENV", "development"),

		ConversationBackend: strings.ToLower(getEnvOrDefault("CONVERSATION_BACKEND", "memory")),
		SessionBackend:      strings.ToLower(getEnvOrDefault("SESSION_BACKEND", "memory")),
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:            getEnvOrDefault("REDIS_URL", ""),
		MigrationsDir:       getEnvOrDefault("MIGRATIONS_DIR", "migrations"),

		MaxHistory:      getEnvAsIntOrDefault("MAX_CONVERSATIONS", 50),
		ContextMessages: getEnvAsIntOrDefault("CONTEXT_MESSAGES", 10),
		SessionLifetime: getEnvAsDurationOrDefault("SESSION_LIFETIME", 24*time.Hour),

		WAHAURL:               getEnvOrDefault("WAHA_URL", ""),
		WAHAAPIKey:            getEnvOrDefault("WAHA_API_KEY", ""),
		WAHASession:           getEnvOrDefault("WAHA_SESSION", "default"),
		WAHAKeepAliveInterval: time.Duration(getEnvAsIntOrDefault("WAHA_KEEPALIVE_INTERVAL", 600)) * time.Second,

		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),

		PersonalityPrompt:    getEnvOrDefault("PERSONALITY_PROMPT", "You are a helpful assistant named Wednesday."),
		GreetingPrompt:       getEnvOrDefault("GREETING_PROMPT", "Give a brief, friendly greeting."),
		InitialMessagePrompt: getEnvOrDefault("INITIAL_MESSAGE_PROMPT", "Send a friendly message under 50 words."),
		FallbackReply:        getEnvOrDefault("FALLBACK_REPLY", "Sorry, I'm having trouble thinking right now. Try again later."),
		TypingDelay:          time.Duration(getEnvAsIntOrDefault("TYPING_DELAY", 0)) * time.Second,

		AdminJWTSecret: getEnvOrDefault("ADMIN_JWT_SECRET", ""),
		SendRateLimit:  getEnvAsIntOrDefault("SEND_RATE_LIMIT", 10),
	}

	return cfg
}

// SpotifyConfig is read by the token helper only.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	TokenFile    string
}

func LoadSpotify() *SpotifyConfig {
	godotenv.Load()

	return &SpotifyConfig{
		ClientID:     getEnvOrDefault("SPOTIFY_CLIENT_ID", "your-client-id"),
		ClientSecret: getEnvOrDefault("SPOTIFY_SECRET", "your-client-secret"),
		RedirectURI:  getEnvOrDefault("SPOTIFY_REDIRECT_URI", "http://localhost:8888/callback"),
		TokenFile:    getEnvOrDefault("SPOTIFY_TOKEN_FILE", "task_data/spotify_tokens.json"),
	}
}

type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
}

func LoadGmail() *GmailConfig {
	godotenv.Load()

	return &GmailConfig{
		CredentialsFile: findCredentialsFile(),
		TokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "task_data/google_tokens.json"),
	}
}

// credentialSearchPaths are checked in order after the explicit env vars.
var credentialSearchPaths = []string{
	"./credentials.json",
	"./handlers/credentials.json",
	"/etc/secrets/credentials.json",
}

func findCredentialsFile() string {
	for _, key := range []string{"GOOGLE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"} {
		if path := os.Getenv(key); path != "" && fileExists(path) {
			return path
		}
	}
	for _, path := range credentialSearchPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go duration strings ("90m") or a bare
// number of seconds.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
