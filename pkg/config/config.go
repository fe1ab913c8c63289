package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Storage       StorageConfig
	Scoring       ScoringConfig
	Wizard        WizardConfig
	Opportunities OpportunitiesConfig
	Reminders     RemindersConfig
	Events        EventsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig describes how access tokens issued by the hosted auth provider are verified.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects and configures the object store for uploaded files.
type StorageConfig struct {
	Driver           string
	LocalDir         string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	PublicBaseURL    string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	EnforceTypes     bool
}

// ScoringConfig tunes match scoring and deadline classification.
type ScoringConfig struct {
	MatchMode     string
	LegacyMatch   int
	TimeZone      string
	ThisWeekLimit int
}

// WizardConfig governs the profile wizard sessions.
type WizardConfig struct {
	SaveTimeout time.Duration
	SessionTTL  time.Duration
}

// OpportunitiesConfig governs grant listing cache behaviour.
type OpportunitiesConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// RemindersConfig drives the periodic deadline reminder sweep.
type RemindersConfig struct {
	Enabled       bool
	Schedule      string
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
	LookaheadDays int
}

// EventsConfig points the reminder publisher at a Kafka cluster. Empty brokers means log only.
type EventsConfig struct {
	Brokers []string
	Topic   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("STORAGE_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 50 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Driver:           strings.ToLower(v.GetString("STORAGE_DRIVER")),
		LocalDir:         v.GetString("STORAGE_LOCAL_DIR"),
		S3Bucket:         v.GetString("STORAGE_S3_BUCKET"),
		S3Region:         v.GetString("STORAGE_S3_REGION"),
		S3Endpoint:       v.GetString("STORAGE_S3_ENDPOINT"),
		S3AccessKey:      v.GetString("STORAGE_S3_ACCESS_KEY"),
		S3SecretKey:      v.GetString("STORAGE_S3_SECRET_KEY"),
		PublicBaseURL:    v.GetString("STORAGE_PUBLIC_BASE_URL"),
		SignedURLSecret:  v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxUpload,
		EnforceTypes:     v.GetBool("STORAGE_ENFORCE_TYPES"),
	}

	cfg.Scoring = ScoringConfig{
		MatchMode:     strings.ToLower(v.GetString("MATCH_MODE")),
		LegacyMatch:   v.GetInt("MATCH_LEGACY_SCORE"),
		TimeZone:      v.GetString("DEADLINE_TIME_ZONE"),
		ThisWeekLimit: v.GetInt("DASHBOARD_THIS_WEEK_LIMIT"),
	}

	cfg.Wizard = WizardConfig{
		SaveTimeout: parseDuration(v.GetString("WIZARD_SAVE_TIMEOUT"), 5*time.Second),
		SessionTTL:  parseDuration(v.GetString("WIZARD_SESSION_TTL"), 72*time.Hour),
	}

	cfg.Opportunities = OpportunitiesConfig{
		CacheEnabled: v.GetBool("ENABLE_OPPORTUNITY_CACHE"),
		CacheTTL:     parseDuration(v.GetString("OPPORTUNITY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reminders = RemindersConfig{
		Enabled:       v.GetBool("ENABLE_REMINDERS"),
		Schedule:      v.GetString("REMINDERS_SCHEDULE"),
		Workers:       v.GetInt("REMINDERS_WORKERS"),
		MaxRetries:    v.GetInt("REMINDERS_MAX_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("REMINDERS_RETRY_DELAY"), 5*time.Second),
		LookaheadDays: v.GetInt("REMINDERS_LOOKAHEAD_DAYS"),
	}

	cfg.Events = EventsConfig{
		Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:   v.GetString("KAFKA_REMINDER_TOPIC"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "grant_match")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./uploads")
	v.SetDefault("STORAGE_S3_REGION", "us-east-1")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "30m")
	v.SetDefault("STORAGE_MAX_FILE_SIZE", 50*1024*1024)
	v.SetDefault("STORAGE_ENFORCE_TYPES", false)

	v.SetDefault("MATCH_MODE", "weighted")
	v.SetDefault("MATCH_LEGACY_SCORE", 98)
	v.SetDefault("DEADLINE_TIME_ZONE", "UTC")
	v.SetDefault("DASHBOARD_THIS_WEEK_LIMIT", 5)

	v.SetDefault("WIZARD_SAVE_TIMEOUT", "5s")
	v.SetDefault("WIZARD_SESSION_TTL", "72h")

	v.SetDefault("ENABLE_OPPORTUNITY_CACHE", true)
	v.SetDefault("OPPORTUNITY_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_REMINDERS", false)
	v.SetDefault("REMINDERS_SCHEDULE", "0 0 * * * *")
	v.SetDefault("REMINDERS_WORKERS", 2)
	v.SetDefault("REMINDERS_MAX_RETRIES", 3)
	v.SetDefault("REMINDERS_RETRY_DELAY", "5s")
	v.SetDefault("REMINDERS_LOOKAHEAD_DAYS", 7)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_REMINDER_TOPIC", "deadline.reminder")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
