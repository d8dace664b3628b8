package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pricetrawl/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Server configuration
	Port         int
	FetchTimeout time.Duration

	// Host cooldown cache, disabled when MemcacheAddr is empty
	MemcacheAddr string
	HostCooldown time.Duration

	// Batch stream publisher, disabled when RedisAddr is empty
	RedisAddr         string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int64

	// Scheduled reporting
	EnableScheduler   bool
	CronSpec          string
	ReportURLs        string
	ReportPercentOff  float64
	ReportAbsoluteOff float64
	ReportMaxPages    int

	SMTP SMTPConfig

	// Environment
	Environment string
}

// SMTPConfig holds the mail relay settings for scheduled reports
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

// Complete reports whether every field required to send mail is present.
// Port is not checked because it always carries a default.
func (s SMTPConfig) Complete() bool {
	return s.Host != "" && s.User != "" && s.Pass != "" && s.From != "" && s.To != ""
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Port:         getEnvInt("PORT", 0),
		FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),
		HostCooldown: time.Duration(getEnvInt("HOST_COOLDOWN_SECONDS", 300)) * time.Second,

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisStream:       getEnv("REDIS_STREAM", "pricetrawl:batches"),
		RedisStreamMaxLen: int64(getEnvInt("REDIS_STREAM_MAXLEN", 1000)),

		EnableScheduler:   getEnvBool("ENABLE_SCHEDULER", false),
		CronSpec:          getEnv("CRON", "0 8 * * *"),
		ReportURLs:        getEnv("REPORT_URLS", ""),
		ReportPercentOff:  getEnvFloat("REPORT_PERCENT_OFF", 0),
		ReportAbsoluteOff: getEnvFloat("REPORT_ABS_OFF", 0),
		ReportMaxPages:    getEnvInt("REPORT_MAX_PAGES", 20),

		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: getEnvInt("SMTP_PORT", 587),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", ""),
			To:   getEnv("REPORT_EMAIL_TO", ""),
		},

		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

// Validate checks startup invariants that cannot be defaulted away
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewConfig(fmt.Sprintf("PORT %d out of range", c.Port), nil)
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfig("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.ReportMaxPages < 0 {
		return errors.NewConfig("REPORT_MAX_PAGES must not be negative", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvFloat retrieves a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
