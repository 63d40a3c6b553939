package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort            = "3001"
	defaultFrontendURL     = "http://localhost:3000"
	defaultEnvironment     = "development"
	defaultSMTPHost        = "smtp.gmail.com"
	defaultSMTPPort        = 587
	defaultCourseBaseURL   = "http://yourwebsite.com"
	defaultShutdownTimeout = 10 * time.Second
)

// Mail transports selectable with MAIL_TRANSPORT.
const (
	MailTransportSMTP = "smtp"
	MailTransportLog  = "log"
)

// Server captures process level configuration.
type Server struct {
	Port            string
	Environment     string
	FrontendURL     string
	DatabaseURL     string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	Mail            Mail
}

// Mail configures the notification transport and message links.
type Mail struct {
	Transport     string
	User          string
	Password      string
	SMTPHost      string
	SMTPPort      int
	CourseBaseURL string
}

// Addr is the listen address for Port.
func (s Server) Addr() string {
	return ":" + s.Port
}

// IsProduction reports whether NODE_ENV is production.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Port:            getenv("PORT", defaultPort),
		Environment:     getenv("NODE_ENV", defaultEnvironment),
		FrontendURL:     getenv("FRONTEND_URL", defaultFrontendURL),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ShutdownTimeout: defaultShutdownTimeout,
		Mail: Mail{
			Transport:     strings.ToLower(getenv("MAIL_TRANSPORT", MailTransportSMTP)),
			User:          os.Getenv("EMAIL_USER"),
			Password:      os.Getenv("EMAIL_PASSWORD"),
			SMTPHost:      getenv("SMTP_HOST", defaultSMTPHost),
			SMTPPort:      defaultSMTPPort,
			CourseBaseURL: strings.TrimRight(getenv("COURSE_BASE_URL", defaultCourseBaseURL), "/"),
		},
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Server{}, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Server{}, fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.Mail.SMTPPort = port
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Server{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return Server{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.Mail.Transport {
	case MailTransportSMTP, MailTransportLog:
	default:
		return Server{}, fmt.Errorf("invalid MAIL_TRANSPORT %q: want %q or %q", cfg.Mail.Transport, MailTransportSMTP, MailTransportLog)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
