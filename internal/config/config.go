package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort           = "8585"
	defaultImageUploadURL = "https://api.cloudinary.com/v1_1/flowerseal/image/upload"
	defaultEmailCheckURL  = "https://apilayer.net/api/check"
)

var ErrInvalidAPIBaseURL = errors.New("API_BASE_URL must be an absolute http(s) URL")

type Config struct {
	Port         string
	APIBaseURL   string
	DBPath       string
	CSRFKey      []byte
	SessionKey   []byte
	CookieDomain string
	CookieSecure bool

	SessionMaxAge  time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration

	ImageUploadURL    string
	ImageUploadPreset string
	ImageMaxWidth     uint

	EmailValidationURL    string
	EmailValidationKey    string
	EmailValidationPolicy string

	RabbitMQURL string
	BusExchange string

	LogLevel  slog.Level
	LogFormat string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", defaultPort),
		APIBaseURL:            strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		DBPath:                getEnv("DB_PATH", "./flowerseal.db"),
		CookieDomain:          getEnv("COOKIE_DOMAIN", ""),
		CookieSecure:          getEnv("COOKIE_SECURE", "false") == "true",
		SessionMaxAge:         getDuration("SESSION_MAX_AGE", 30*24*time.Hour),
		RequestTimeout:        getDuration("REQUEST_TIMEOUT", 15*time.Second),
		CacheTTL:              getDuration("CACHE_TTL", 0),
		ImageUploadURL:        getEnv("IMAGE_UPLOAD_URL", defaultImageUploadURL),
		ImageUploadPreset:     getEnv("IMAGE_UPLOAD_PRESET", ""),
		ImageMaxWidth:         800,
		EmailValidationURL:    getEnv("EMAIL_VALIDATION_URL", defaultEmailCheckURL),
		EmailValidationKey:    getEnvFromFile("EMAIL_VALIDATION_KEY_FILE", "EMAIL_VALIDATION_KEY", ""),
		EmailValidationPolicy: getEnv("EMAIL_VALIDATION_POLICY", "best-effort"),
		RabbitMQURL:           getEnvFromFile("RABBITMQ_URL_FILE", "RABBITMQ_URL", ""),
		BusExchange:           getEnv("BUS_EXCHANGE", "flowerseal.events"),
		LogFormat:             strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	cfg.CSRFKey = loadKey("CSRF_KEY", "CSRF tokens will be invalid on restart")
	cfg.SessionKey = loadKey("SESSION_KEY", "Sessions will be invalid on restart")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = defaultPort
	}

	if w := getEnv("IMAGE_MAX_WIDTH", ""); w != "" {
		n, err := strconv.ParseUint(w, 10, 32)
		if err != nil || n == 0 {
			slog.Warn("Invalid IMAGE_MAX_WIDTH. Falling back to default.", "IMAGE_MAX_WIDTH", w)
		} else {
			cfg.ImageMaxWidth = uint(n)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		slog.Warn("Invalid LOG_LEVEL. Falling back to info.", "LOG_LEVEL", os.Getenv("LOG_LEVEL"))
		cfg.LogLevel = slog.LevelInfo
	}

	switch cfg.EmailValidationPolicy {
	case "strict", "best-effort", "off":
	default:
		return nil, fmt.Errorf("EMAIL_VALIDATION_POLICY %q: want strict, best-effort or off", cfg.EmailValidationPolicy)
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAPIBaseURL, cfg.APIBaseURL)
	}

	if cfg.EmailValidationPolicy != "off" && cfg.EmailValidationKey == "" {
		slog.Warn("EMAIL_VALIDATION_KEY not set. Email addresses will only be checked locally.")
	}
	if cfg.ImageUploadPreset == "" {
		slog.Warn("IMAGE_UPLOAD_PRESET not set. Image uploads will likely be rejected by the image host.")
	}

	return cfg, nil
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadKey reads a base64 key of at least 32 bytes from name (or name_FILE),
// generating a random one when it is missing or invalid.
func loadKey(name, consequence string) []byte {
	raw := getEnvFromFile(name+"_FILE", name, "")
	if raw == "" {
		slog.Warn(name + " environment variable not set. Generating a random key for development. " + consequence + ". PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		slog.Warn(name + " is invalid or too short (min 32 bytes recommended). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
		slog.Warn("Failed to read secret file, using environment", "var", fileKey, "error", err)
	}
	return getEnv(envKey, defaultValue)
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("Invalid duration. Falling back to default.", "var", key, "value", v, "default", defaultValue)
		return defaultValue
	}
	return d
}

// generateRandomBytes generates a random byte slice of specified length
// Uses crypto/rand for secure random numbers.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to read random bytes", "error", err)
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		if len(fallbackKey) < n {
			paddedKey := make([]byte, n)
			copy(paddedKey, fallbackKey)
			return paddedKey
		}
		return []byte(fallbackKey)[:n]
	}
	return b
}
