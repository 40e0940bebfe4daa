package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by CHAT_BACKEND and CHAT_FALLBACK_BACKEND.
const (
	BackendGemini    = "gemini"
	BackendGeminiSDK = "gemini-sdk"
	BackendBedrock   = "bedrock"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Conversational backend
	ChatBackend         string
	ChatFallbackBackend string
	GeminiAPIKey        string
	GeminiModel         string
	GeminiBaseURL       string
	BedrockModelID      string
	ChatMaxAttempts     int
	ChatRetryBaseDelay  time.Duration
	ChatHTTPTimeout     time.Duration
	ChatGrounding       bool
	ChatLockAfterEnd    bool
	SupportProfilePath  string
	SessionIdleTTL      time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Credentials
	AuthJWTSecret string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Human handoff email
	HandoffEmailTo string
	EmailProvider  string
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ChatBackend:         strings.ToLower(strings.TrimSpace(getEnv("CHAT_BACKEND", BackendGemini))),
		ChatFallbackBackend: strings.ToLower(strings.TrimSpace(getEnv("CHAT_FALLBACK_BACKEND", ""))),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		ChatMaxAttempts:     getEnvAsInt("CHAT_MAX_ATTEMPTS", 3),
		ChatRetryBaseDelay:  getEnvAsDuration("CHAT_RETRY_BASE_DELAY", 2*time.Second),
		ChatHTTPTimeout:     getEnvAsDuration("CHAT_HTTP_TIMEOUT", 20*time.Second),
		ChatGrounding:       getEnvAsBool("CHAT_GROUNDING", true),
		ChatLockAfterEnd:    getEnvAsBool("CHAT_LOCK_AFTER_HANDOFF", false),
		SupportProfilePath:  getEnv("SUPPORT_PROFILE_PATH", ""),
		SessionIdleTTL:      getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),

		HandoffEmailTo: getEnv("HANDOFF_EMAIL_TO", ""),
		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "ConnectCom Support"),
	}
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if !validBackend(c.ChatBackend) {
		return fmt.Errorf("config: unknown CHAT_BACKEND %q", c.ChatBackend)
	}
	if c.ChatFallbackBackend != "" && !validBackend(c.ChatFallbackBackend) {
		return fmt.Errorf("config: unknown CHAT_FALLBACK_BACKEND %q", c.ChatFallbackBackend)
	}
	for _, b := range []string{c.ChatBackend, c.ChatFallbackBackend} {
		switch b {
		case BackendGemini, BackendGeminiSDK:
			if c.GeminiAPIKey == "" {
				return fmt.Errorf("config: GEMINI_API_KEY is required for backend %q", b)
			}
		case BackendBedrock:
			if c.BedrockModelID == "" {
				return fmt.Errorf("config: BEDROCK_MODEL_ID is required for backend %q", b)
			}
		}
	}
	if c.ChatMaxAttempts < 1 {
		return fmt.Errorf("config: CHAT_MAX_ATTEMPTS must be at least 1")
	}
	switch c.EmailProvider {
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("config: SENDGRID_API_KEY is required for EMAIL_PROVIDER=sendgrid")
		}
	case "ses", "stub", "":
	default:
		return fmt.Errorf("config: unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}
	return nil
}

func validBackend(name string) bool {
	switch name {
	case BackendGemini, BackendGeminiSDK, BackendBedrock:
		return true
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
