package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envSiteBaseURL           = "SITE_BASE_URL"
	envDBHost                = "DB_HOST"
	envDBPort                = "DB_PORT"
	envDBName                = "DB_NAME"
	envDBUser                = "DB_USER"
	envDBPassword            = "DB_PASSWORD"
	envDBSSLMode             = "DB_SSL_MODE"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envJWTSecret             = "ACCESS_JWT_SECRET"
	envSessionTTLHours       = "SESSION_TTL_HOURS"
	envMagicSessionTTLDays   = "MAGIC_SESSION_TTL_DAYS"
	envCodeTTLDays           = "ACCESS_CODE_TTL_DAYS"
	envAdminSecret           = "ADMIN_SECRET"
	envStripeWebhookSecret   = "STRIPE_WEBHOOK_SECRET"
	envStripePriceRAMS       = "STRIPE_PRICE_RAMS_ONEOFF"
	envStripePriceCPP        = "STRIPE_PRICE_CPP_ONEOFF"
	envResendAPIKey          = "RESEND_API_KEY"
	envFromEmail             = "FROM_EMAIL"
	envDocgenURL             = "DOCGEN_URL"
	envDocgenKey             = "DOCGEN_KEY"
	envMaxPendingMinutes     = "GENERATION_MAX_PENDING_MINUTES"
	envAWSRegion             = "REGION"
	envAWSAccessKeyID        = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey    = "AWS_SECRET_ACCESS_KEY"
	envArtifactBucket        = "ARTIFACT_BUCKET"
)

const (
	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 10 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultSiteBaseURL        = "http://localhost:3000"
	defaultDBHost             = "localhost"
	defaultDBPort             = 5432
	defaultDBName             = "hardhat"
	defaultDBUser             = "hardhat_app"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 25
	defaultDBMinConns         = 5
	defaultSessionTTL         = 6 * time.Hour
	defaultMagicSessionTTL    = 7 * 24 * time.Hour
	defaultCodeTTLDays        = 30
	defaultDocgenURL          = "http://localhost:8000"
	defaultMaxPending         = 30 * time.Minute
	defaultFromEmail          = "Hard Hat AI <no-reply@hardhatai.co>"

	errPortRequiredFmt       = "PORT must be set"
	errDBPasswordRequiredFmt = "DB_PASSWORD must be set"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Session    SessionConfig
	Codes      CodesConfig
	Stripe     StripeConfig
	Email      EmailConfig
	Docgen     DocgenConfig
	Artifacts  ArtifactsConfig
	SiteBase   string
	AdminToken string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

// SessionConfig holds the signed access-cookie settings. Secret is allowed to
// be empty at startup; the session service reports it when first used.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	MagicLinkTTL time.Duration
}

type CodesConfig struct {
	TTLDays int
}

type StripeConfig struct {
	WebhookSecret string
	PriceRAMS     string
	PriceCPP      string
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

type DocgenConfig struct {
	BaseURL string
	APIKey  string
	// MaxPending is how long a submission may sit without outputs before
	// status checks report it as failed.
	MaxPending time.Duration
}

type ArtifactsConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// Load reads configuration from the environment. Only the server and database
// sections are validated here; collaborator secrets (Stripe, Resend, docgen,
// session signing) are checked by the operation that needs them so the rest of
// the gateway keeps working when one of them is absent.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
		},
		Database: DatabaseConfig{
			Host:     getEnv(envDBHost, defaultDBHost),
			Port:     getIntEnv(envDBPort, defaultDBPort),
			Database: getEnv(envDBName, defaultDBName),
			User:     getEnv(envDBUser, defaultDBUser),
			Password: os.Getenv(envDBPassword),
			SSLMode:  getEnv(envDBSSLMode, defaultDBSSLMode),
			MaxConns: getIntEnv(envDBMaxConns, defaultDBMaxConns),
			MinConns: getIntEnv(envDBMinConns, defaultDBMinConns),
		},
		Session: SessionConfig{
			Secret:       os.Getenv(envJWTSecret),
			TTL:          time.Duration(getIntEnv(envSessionTTLHours, int(defaultSessionTTL/time.Hour))) * time.Hour,
			MagicLinkTTL: time.Duration(getIntEnv(envMagicSessionTTLDays, int(defaultMagicSessionTTL/(24*time.Hour)))) * 24 * time.Hour,
		},
		Codes: CodesConfig{
			TTLDays: getIntEnv(envCodeTTLDays, defaultCodeTTLDays),
		},
		Stripe: StripeConfig{
			WebhookSecret: os.Getenv(envStripeWebhookSecret),
			PriceRAMS:     os.Getenv(envStripePriceRAMS),
			PriceCPP:      os.Getenv(envStripePriceCPP),
		},
		Email: EmailConfig{
			ResendAPIKey: os.Getenv(envResendAPIKey),
			From:         getEnv(envFromEmail, defaultFromEmail),
		},
		Docgen: DocgenConfig{
			BaseURL:    getEnv(envDocgenURL, defaultDocgenURL),
			APIKey:     os.Getenv(envDocgenKey),
			MaxPending: time.Duration(getIntEnv(envMaxPendingMinutes, int(defaultMaxPending/time.Minute))) * time.Minute,
		},
		Artifacts: ArtifactsConfig{
			Region:          os.Getenv(envAWSRegion),
			AccessKeyID:     os.Getenv(envAWSAccessKeyID),
			SecretAccessKey: os.Getenv(envAWSSecretAccessKey),
			Bucket:          os.Getenv(envArtifactBucket),
		},
		SiteBase:   getEnv(envSiteBaseURL, defaultSiteBaseURL),
		AdminToken: os.Getenv(envAdminSecret),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	if c.Database.Password == "" {
		return fmt.Errorf(errDBPasswordRequiredFmt)
	}

	return nil
}

func (dc *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		dc.Host, dc.Port, dc.Database, dc.User, dc.Password, dc.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
