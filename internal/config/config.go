package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	GrpcPort string `mapstructure:"GRPC_PORT"`
	GinMode  string `mapstructure:"GIN_MODE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBName     string `mapstructure:"DB_NAME"`

	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	CatalogTTL    int    `mapstructure:"CATALOG_CACHE_TTL_SECONDS"`

	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL   string `mapstructure:"S3_PUBLIC_BASE_URL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_DEFAULT_SENDER"`
	AdminEmail   string `mapstructure:"ADMIN_EMAIL"`

	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AdminTelegramIDs string `mapstructure:"ADMIN_TELEGRAM_IDS"`

	DigestCron      string `mapstructure:"DIGEST_CRON"`
	WorkerQueueSize int    `mapstructure:"WORKER_CONCURRENCY"`
}

var defaults = map[string]interface{}{
	"APP_ENV":                   "prod",
	"PORT":                      "8080",
	"GRPC_PORT":                 "50051",
	"GIN_MODE":                  "",
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "json",
	"DB_USER":                   "",
	"DB_PASSWORD":               "",
	"DB_HOST":                   "127.0.0.1",
	"DB_PORT":                   "3306",
	"DB_NAME":                   "",
	"REDIS_URL":                 "localhost:6379",
	"REDIS_PASSWORD":            "",
	"CATALOG_CACHE_TTL_SECONDS": 600,
	"S3_BUCKET":                 "",
	"S3_REGION":                 "us-east-1",
	"S3_ENDPOINT_URL":           "",
	"S3_ACCESS_KEY_ID":          "",
	"S3_SECRET_ACCESS_KEY":      "",
	"S3_PUBLIC_BASE_URL":        "",
	"SMTP_HOST":                 "",
	"SMTP_PORT":                 "587",
	"SMTP_USERNAME":             "",
	"SMTP_PASSWORD":             "",
	"MAIL_DEFAULT_SENDER":       "",
	"ADMIN_EMAIL":               "",
	"TELEGRAM_BOT_TOKEN":        "",
	"ADMIN_TELEGRAM_IDS":        "",
	"DIGEST_CRON":               "0 8 * * *",
	"WORKER_CONCURRENCY":        10,
}

// LoadEnvFiles loads the first .env file found, falling back to the process environment.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env", "../.env", "../../.env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			log.Debug().Str("path", path).Msg("Loaded env file")
			return
		}
	}
	log.Info().Msg("No .env file found, using system environment variables")
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := c.AdminIDs(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// DSN is the MySQL data source name.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// AdminIDs parses ADMIN_TELEGRAM_IDS, a comma separated list.
func (c Config) AdminIDs() (map[int64]bool, error) {
	ids := make(map[int64]bool)
	for _, raw := range strings.Split(c.AdminTelegramIDs, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_IDS entry %q: %w", raw, err)
		}
		ids[id] = true
	}
	return ids, nil
}
