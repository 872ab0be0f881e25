package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	}
	Feed struct {
		URL           string
		Origin        string
		Timeout       time.Duration
		Session       string
		RatePerSecond float64
	}
	Batch struct {
		Workers   int
		Frequency string
	}
	WebPush struct {
		PublicKey  string
		PrivateKey string
		Subscriber string
	}
	Telegram struct {
		BotToken      string
		RatePerSecond int
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	API struct {
		Port     string
		BasePath string
	}
	Scheduler struct {
		Enabled   bool
		Schedules map[string]string
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// Exchange cache
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		cfg.Redis.DB = n
	}
	if d, err := time.ParseDuration(os.Getenv("EXCHANGE_CACHE_TTL")); err == nil {
		cfg.Redis.TTL = d
	}

	// Quote feed
	cfg.Feed.URL = os.Getenv("FEED_URL")
	cfg.Feed.Origin = os.Getenv("FEED_ORIGIN")
	if ms, err := strconv.Atoi(os.Getenv("FEED_TIMEOUT_MS")); err == nil {
		cfg.Feed.Timeout = time.Duration(ms) * time.Millisecond
	}
	cfg.Feed.Session = os.Getenv("FEED_SESSION")
	if r, err := strconv.ParseFloat(os.Getenv("FEED_RATE_PER_SECOND"), 64); err == nil {
		cfg.Feed.RatePerSecond = r
	}

	// Batch settings
	if w, err := strconv.Atoi(os.Getenv("WORKERS")); err == nil {
		cfg.Batch.Workers = w
	}
	cfg.Batch.Frequency = os.Getenv("ALERT_FREQUENCY")

	// Push transports
	cfg.WebPush.PublicKey = os.Getenv("VAPID_PUBLIC_KEY")
	cfg.WebPush.PrivateKey = os.Getenv("VAPID_PRIVATE_KEY")
	cfg.WebPush.Subscriber = os.Getenv("VAPID_SUBSCRIBER")
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if r, err := strconv.Atoi(os.Getenv("TELEGRAM_RATE_PER_SECOND")); err == nil {
		cfg.Telegram.RatePerSecond = r
	}

	// Email settings
	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	if p, err := strconv.Atoi(os.Getenv("EMAIL_SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = p
	}
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")

	// SMS settings
	cfg.SMS.AccountSID = os.Getenv("SMS_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("SMS_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("SMS_FROM_NUMBER")

	// Kafka trigger
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TRIGGER_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Scheduler settings
	cfg.Scheduler.Enabled = !strings.EqualFold(os.Getenv("SCHEDULER_ENABLED"), "false")
	cfg.Scheduler.Schedules = map[string]string{
		"MINUTE_LEVEL": envOr("SCHEDULE_MINUTE_LEVEL", "* * * * *"),
		"HOURLY_LEVEL": envOr("SCHEDULE_HOURLY_LEVEL", "0 * * * *"),
		"DAILY_LEVEL":  envOr("SCHEDULE_DAILY_LEVEL", "0 0 * * *"),
	}

	// Logging
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 10 * time.Minute
	}
	if cfg.Feed.URL == "" {
		cfg.Feed.URL = "wss://data.tradingview.com/socket.io/websocket?type=chart"
	}
	if cfg.Feed.Origin == "" {
		cfg.Feed.Origin = "https://www.tradingview.com"
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 10 * time.Second
	}
	if cfg.Feed.Session == "" {
		cfg.Feed.Session = "extended"
	}
	if cfg.Feed.RatePerSecond == 0 {
		cfg.Feed.RatePerSecond = 5
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 5
	}
	if cfg.Batch.Frequency == "" {
		cfg.Batch.Frequency = "HOURLY_LEVEL"
	}
	if cfg.WebPush.Subscriber == "" {
		cfg.WebPush.Subscriber = "mailto:alerts@example.com"
	}
	if cfg.Telegram.RatePerSecond == 0 {
		cfg.Telegram.RatePerSecond = 25
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "alert_trigger"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "market-alert-service"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
