package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL     string
	TwilioSID   string
	TwilioToken string

	SendersPath           string
	RecipientsDailyPath   string
	RecipientsFourDayPath string

	SendInterval  time.Duration
	BatchDeadline time.Duration
	FetchTimeout  time.Duration
	SendTimeout   time.Duration

	ContactNumber string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dispatch audit sink configuration (feature-flagged via KAFKA_ENABLED /
	// KAFKA_BROKERS).
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAuditTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	sendInterval, err := durationEnv("SEND_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	batchDeadline, err := durationEnv("BATCH_DEADLINE", 4*time.Hour)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := durationEnv("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	sendTimeout, err := durationEnv("SEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		FeedURL:     os.Getenv("NAVIFEED_URL"),
		TwilioSID:   os.Getenv("TWILIO_SID"),
		TwilioToken: os.Getenv("TWILIO_AUTH_TOKEN"),

		SendersPath:           envOrDefault("SENDERS_DB_PATH", "db/senders.json"),
		RecipientsDailyPath:   envOrDefault("RECIPIENTS_DAILY_DB_PATH", "db/recipients-daily.json"),
		RecipientsFourDayPath: envOrDefault("RECIPIENTS_FOUR_DAY_DB_PATH", "db/recipients-four-day.json"),

		SendInterval:  sendInterval,
		BatchDeadline: batchDeadline,
		FetchTimeout:  fetchTimeout,
		SendTimeout:   sendTimeout,

		ContactNumber: envOrDefault("CONTACT_NUMBER", "0758659166"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    brokers,
		KafkaAuditTopic: envOrDefault("KAFKA_AUDIT_TOPIC", "sms-dispatch-audit"),
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("NAVIFEED_URL is required")
	}
	if cfg.TwilioSID == "" {
		return nil, errors.New("TWILIO_SID is required")
	}
	if cfg.TwilioToken == "" {
		return nil, errors.New("TWILIO_AUTH_TOKEN is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
