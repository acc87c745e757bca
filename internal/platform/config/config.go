package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration, read once in main.
type Config struct {
	Server   Server
	Log      LogConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Geocoder GeocoderConfig
	Blob     BlobConfig
	Mail     MailConfig
	Kafka    KafkaConfig
	Metrics  MetricsConfig
	Limits   RateLimitConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig covers session credentials and OTP registration.
type AuthConfig struct {
	JWTSigningKey  string
	JWTIssuer      string
	OTPTTL         time.Duration
	OTPEmailStrict bool
}

// DatabaseConfig selects Postgres. An empty URL keeps every store in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects Redis for pending registrations and token revocation.
// An empty URL keeps both in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type GeocoderConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Disabled  bool
}

// BlobConfig selects Cloudinary when CloudinaryURL is set, local disk otherwise.
type BlobConfig struct {
	CloudinaryURL string
	Folder        string
	UploadDir     string
	PublicBaseURL string
}

// MailConfig selects Mailjet when both keys are set, a log-only mailer otherwise.
type MailConfig struct {
	APIKey    string
	SecretKey string
	FromEmail string
	FromName  string
}

// KafkaConfig enables the domain event stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type MetricsConfig struct {
	Enabled bool
}

// RateLimitConfig sets per-IP budgets. A non-positive count disables that class.
type RateLimitConfig struct {
	Disabled       bool
	AuthPerMinute  int
	WritePerMinute int
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads a .env file when present, then builds Config from the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	durationVar := func(key string, def time.Duration) time.Duration {
		d, err := envDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	intVar := func(key string, def int) int {
		n, err := envInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	cfg := Config{
		Server: Server{
			Addr:            envString("RENTMEROOM_ADDR", ":8080"),
			ShutdownTimeout: durationVar("SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxUploadBytes:  int64(intVar("MAX_UPLOAD_BYTES", 20<<20)),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSigningKey:  envString("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:      envString("JWT_ISSUER", "rentmeroom"),
			OTPTTL:         durationVar("OTP_TTL", 5*time.Minute),
			OTPEmailStrict: envBool("OTP_EMAIL_STRICT"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    intVar("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    intVar("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durationVar("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intVar("REDIS_POOL_SIZE", 10),
			MinIdleConns: intVar("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationVar("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationVar("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationVar("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   envString("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			Timeout:   durationVar("GEOCODER_TIMEOUT", 5*time.Second),
			UserAgent: envString("GEOCODER_USER_AGENT", "rentmeroom/1.0"),
			Disabled:  envBool("GEOCODER_DISABLED"),
		},
		Blob: BlobConfig{
			CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
			Folder:        envString("CLOUDINARY_FOLDER", "rentmeroom"),
			UploadDir:     envString("UPLOAD_DIR", "./uploads"),
			PublicBaseURL: envString("UPLOAD_PUBLIC_BASE_URL", "/uploads"),
		},
		Mail: MailConfig{
			APIKey:    os.Getenv("MAILJET_API_KEY"),
			SecretKey: os.Getenv("MAILJET_SECRET_KEY"),
			FromEmail: envString("MAIL_FROM", "no-reply@rentmeroom.local"),
			FromName:  envString("MAIL_FROM_NAME", "RentMeRoom"),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_TOPIC", "rentmeroom.events"),
		},
		Metrics: MetricsConfig{
			Enabled: envString("METRICS_ENABLED", "true") == "true",
		},
		Limits: RateLimitConfig{
			Disabled:       envBool("RATE_LIMIT_DISABLED"),
			AuthPerMinute:  intVar("RATE_LIMIT_AUTH_PER_MINUTE", 10),
			WritePerMinute: intVar("RATE_LIMIT_WRITE_PER_MINUTE", 30),
		},
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if cfg.Auth.OTPTTL <= 0 {
		return Config{}, fmt.Errorf("OTP_TTL must be positive")
	}
	return cfg, nil
}

// UsingDevSigningKey reports whether the JWT key was left at its development default.
func (c Config) UsingDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
