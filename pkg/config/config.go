package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Reports  ReportsConfig
	Exports  ExportsConfig
	Uploads  UploadsConfig
	Console  ConsoleConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReportsConfig tunes the stats/report aggregation endpoints.
type ReportsConfig struct {
	CacheTTL     time.Duration
	TimeZone     string
	MaxRangeDays int
}

// ExportsConfig configures asynchronous report exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// UploadsConfig controls the file upload endpoint.
type UploadsConfig struct {
	StorageDir       string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// ConsoleConfig configures the attendance admin console process.
type ConsoleConfig struct {
	Port            int
	BotServiceURL   string
	MattermostURL   string
	MattermostToken string
	Locale          string
	SearchDebounce  time.Duration
	TeamsPerPage    int
	SessionTTL      time.Duration
	MaxSessions     int
	AuthCookie      string
	AllowedRoles    []string
	UploadChannelID string
	RequestTimeout  time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
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
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxRange := v.GetInt("REPORT_MAX_RANGE_DAYS")
	if maxRange <= 0 {
		maxRange = 366
	}
	cfg.Reports = ReportsConfig{
		CacheTTL:     parseDuration(v.GetString("REPORT_CACHE_TTL"), 2*time.Minute),
		TimeZone:     v.GetString("REPORT_TIMEZONE"),
		MaxRangeDays: maxRange,
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:       v.GetString("UPLOADS_STORAGE_DIR"),
		MaxFileSizeBytes: maxUpload,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
	}

	teamsPerPage := v.GetInt("CONSOLE_TEAMS_PER_PAGE")
	if teamsPerPage <= 0 {
		teamsPerPage = 50
	}
	cfg.Console = ConsoleConfig{
		Port:            v.GetInt("CONSOLE_PORT"),
		BotServiceURL:   strings.TrimRight(v.GetString("BOT_SERVICE_URL"), "/"),
		MattermostURL:   strings.TrimRight(v.GetString("MATTERMOST_URL"), "/"),
		MattermostToken: v.GetString("MATTERMOST_TOKEN"),
		Locale:          v.GetString("CONSOLE_LOCALE"),
		SearchDebounce:  parseDuration(v.GetString("CONSOLE_SEARCH_DEBOUNCE"), 500*time.Millisecond),
		TeamsPerPage:    teamsPerPage,
		SessionTTL:      parseDuration(v.GetString("CONSOLE_SESSION_TTL"), 30*time.Minute),
		MaxSessions:     v.GetInt("CONSOLE_MAX_SESSIONS"),
		AuthCookie:      v.GetString("CONSOLE_AUTH_COOKIE"),
		AllowedRoles:    splitAndTrim(v.GetString("CONSOLE_ALLOWED_ROLES")),
		UploadChannelID: v.GetString("CONSOLE_UPLOAD_CHANNEL_ID"),
		RequestTimeout:  parseDuration(v.GetString("CONSOLE_REQUEST_TIMEOUT"), 15*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v4")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "attendance-bot")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REPORT_CACHE_TTL", "2m")
	v.SetDefault("REPORT_TIMEZONE", "UTC")
	v.SetDefault("REPORT_MAX_RANGE_DAYS", 366)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "image/png,image/jpeg,image/gif,image/webp,application/pdf")

	v.SetDefault("CONSOLE_PORT", 8090)
	v.SetDefault("BOT_SERVICE_URL", "http://localhost:8080/api/v4")
	v.SetDefault("MATTERMOST_URL", "http://localhost:8065")
	v.SetDefault("MATTERMOST_TOKEN", "")
	v.SetDefault("CONSOLE_LOCALE", "en")
	v.SetDefault("CONSOLE_SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("CONSOLE_TEAMS_PER_PAGE", 50)
	v.SetDefault("CONSOLE_SESSION_TTL", "30m")
	v.SetDefault("CONSOLE_MAX_SESSIONS", 1000)
	v.SetDefault("CONSOLE_AUTH_COOKIE", "attendance_auth_token")
	v.SetDefault("CONSOLE_ALLOWED_ROLES", "system_admin,team_admin")
	v.SetDefault("CONSOLE_UPLOAD_CHANNEL_ID", "")
	v.SetDefault("CONSOLE_REQUEST_TIMEOUT", "15s")
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
