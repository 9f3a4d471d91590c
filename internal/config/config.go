package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys understood by the viper instance. Environment variables use the
// upper-cased form, e.g. TELEGRAM_BOT_TOKEN.
const (
	KeyBotToken          = "telegram_bot_token"
	KeySecretToken       = "webhook_secret_token"
	KeyPublicBaseURL     = "public_base_url"
	KeyRenderExternalURL = "render_external_url"
	KeyHost              = "host"
	KeyPort              = "port"
	KeyDiagAddr          = "diag_addr"
	KeyTelegramAPIURL    = "telegram_api_url"
	KeyLogLevel          = "log_level"
	KeyRequestTimeout    = "request_timeout"
)

const WebhookPath = "/telegram/webhook"

var (
	ErrMissingBotToken    = errors.New("TELEGRAM_BOT_TOKEN not set")
	ErrMissingSecretToken = errors.New("WEBHOOK_SECRET_TOKEN not set")
	ErrInvalidPort        = errors.New("invalid PORT")
)

type Settings struct {
	TelegramBotToken   string
	WebhookSecretToken string
	PublicBaseURL      string

	Host     string
	Port     int
	DiagAddr string

	TelegramAPIURL string
	LogLevel       string
	RequestTimeout time.Duration
}

// NewViper returns a viper instance with defaults set and the environment
// bound. envFile is a dotenv file read when present; real environment
// variables take precedence over it.
func NewViper(envFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, 8000)
	v.SetDefault(KeyDiagAddr, ":9999")
	v.SetDefault(KeyTelegramAPIURL, "https://api.telegram.org")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRequestTimeout, 15*time.Second)

	v.AutomaticEnv()

	if envFile == "" {
		return v, nil
	}

	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}

		return nil, fmt.Errorf("stat %s: %w", envFile, err)
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}

	return v, nil
}

// Load validates and returns the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		TelegramBotToken:   strings.TrimSpace(v.GetString(KeyBotToken)),
		WebhookSecretToken: strings.TrimSpace(v.GetString(KeySecretToken)),
		PublicBaseURL:      strings.TrimSpace(v.GetString(KeyPublicBaseURL)),
		Host:               v.GetString(KeyHost),
		DiagAddr:           v.GetString(KeyDiagAddr),
		TelegramAPIURL:     strings.TrimRight(v.GetString(KeyTelegramAPIURL), "/"),
		LogLevel:           v.GetString(KeyLogLevel),
		RequestTimeout:     v.GetDuration(KeyRequestTimeout),
	}

	// Render.com publishes the service URL here.
	if s.PublicBaseURL == "" {
		s.PublicBaseURL = strings.TrimSpace(v.GetString(KeyRenderExternalURL))
	}

	if s.TelegramBotToken == "" {
		return nil, ErrMissingBotToken
	}

	if s.WebhookSecretToken == "" {
		return nil, ErrMissingSecretToken
	}

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyPort)))
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPort, v.GetString(KeyPort))
	}

	s.Port = port

	if s.RequestTimeout <= 0 {
		s.RequestTimeout = 15 * time.Second
	}

	return s, nil
}

func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// WebhookURL is the public URL Telegram should post updates to. It is empty
// when no public base URL is configured.
func (s *Settings) WebhookURL() string {
	if s.PublicBaseURL == "" {
		return ""
	}

	return strings.TrimRight(s.PublicBaseURL, "/") + WebhookPath
}
