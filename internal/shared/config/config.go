package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransportInProcess = "inprocess"
	TransportKafka     = "kafka"
)

type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	RedisAddr   string
	KafkaBroker string
	JWTSecret   string

	RBACPolicyPath string
	MigrationsDir  string

	Quota        QuotaConfig
	Notification NotificationConfig
}

type QuotaConfig struct {
	DefaultAllowance decimal.Decimal
	ReconcileCron    string
}

type NotificationConfig struct {
	Transport string
	Workers   int
	Buffer    int
	Timeout   time.Duration
	Locale    string

	TelegramAPIURL   string
	TelegramBotToken string
	TelegramChatID   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

func (n NotificationConfig) TelegramEnabled() bool {
	return n.TelegramBotToken != "" && n.TelegramChatID != ""
}

func (n NotificationConfig) EmailEnabled() bool {
	return n.SMTPHost != "" && n.SMTPFrom != ""
}

// Load reads the process environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	allowance, err := decimal.NewFromString(getEnv("QUOTA_DEFAULT_ALLOWANCE", "1.0"))
	if err != nil {
		return nil, fmt.Errorf("config: QUOTA_DEFAULT_ALLOWANCE: %w", err)
	}
	if allowance.IsNegative() {
		return nil, fmt.Errorf("config: QUOTA_DEFAULT_ALLOWANCE must not be negative")
	}

	workers, err := getEnvInt("NOTIFICATION_WORKERS", 2)
	if err != nil {
		return nil, err
	}
	buffer, err := getEnvInt("NOTIFICATION_BUFFER", 256)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(getEnv("NOTIFICATION_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("config: NOTIFICATION_TIMEOUT: %w", err)
	}

	transport := strings.ToLower(getEnv("NOTIFICATION_TRANSPORT", TransportInProcess))
	if transport != TransportInProcess && transport != TransportKafka {
		return nil, fmt.Errorf("config: NOTIFICATION_TRANSPORT must be %q or %q", TransportInProcess, TransportKafka)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		DBHost:         os.Getenv("DB_HOST"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RBACPolicyPath: getEnv("RBAC_POLICY_PATH", "configs/rbac_policy.yaml"),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		Quota: QuotaConfig{
			DefaultAllowance: allowance,
			ReconcileCron:    getEnv("QUOTA_RECONCILE_CRON", "0 2 * * *"),
		},
		Notification: NotificationConfig{
			Transport:        transport,
			Workers:          workers,
			Buffer:           buffer,
			Timeout:          timeout,
			Locale:           getEnv("NOTIFICATION_LOCALE", "vi"),
			TelegramAPIURL:   strings.TrimRight(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
			TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
			SMTPHost:         os.Getenv("SMTP_HOST"),
			SMTPPort:         smtpPort,
			SMTPUser:         os.Getenv("SMTP_USER"),
			SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
			SMTPFrom:         os.Getenv("SMTP_FROM"),
		},
	}

	if cfg.Notification.Transport == TransportKafka && cfg.KafkaBroker == "" {
		return nil, fmt.Errorf("config: KAFKA_BROKER is required when NOTIFICATION_TRANSPORT=kafka")
	}

	return cfg, nil
}

// DSN is the postgres URL used by golang-migrate.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
