package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DB         DBConfig
	S3         S3Config
	Log        LogConfig
	Confidence ConfidenceConfig
	LineItem   LineItemConfig
	Match      MatchConfig
	Queue      QueueConfig
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings for source bytes.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ConfidenceConfig holds the tier thresholds. High is the single
// authoritative "safe" cutoff; nothing else hard-codes it.
type ConfidenceConfig struct {
	High   float64 `mapstructure:"high"`
	Medium float64 `mapstructure:"medium"`
}

// LineItemConfig holds reconciliation settings. Tolerance is a decimal
// string at the document currency's scale, e.g. "0.01".
type LineItemConfig struct {
	Tolerance string `mapstructure:"tolerance"`
}

// MatchConfig holds match engine settings.
type MatchConfig struct {
	VendorWeight    float64 `mapstructure:"vendor_weight"`
	AmountWeight    float64 `mapstructure:"amount_weight"`
	DateWeight      float64 `mapstructure:"date_weight"`
	ReferenceWeight float64 `mapstructure:"reference_weight"`
	AcceptThreshold float64 `mapstructure:"accept_threshold"`
	AmountBandPct   float64 `mapstructure:"amount_band_pct"`
	DateWindowDays  int     `mapstructure:"date_window_days"`
	CacheTTLSecs    int     `mapstructure:"cache_ttl_secs"`
}

// QueueConfig holds extraction queue worker settings.
type QueueConfig struct {
	PollIntervalSecs  int     `mapstructure:"poll_interval_secs"`
	MaxRetries        int     `mapstructure:"max_retries"`
	Concurrency       int     `mapstructure:"concurrency"`
	ExtractRatePerSec float64 `mapstructure:"extract_rate_per_sec"`
	ExtractBurst      int     `mapstructure:"extract_burst"`
	PrimaryURL        string  `mapstructure:"primary_url"`
	FallbackURL       string  `mapstructure:"fallback_url"`
}

// Load reads configuration from environment variables with the APFLOW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("APFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "apflow")
	v.SetDefault("db.password", "apflow_secret")
	v.SetDefault("db.name", "apflow_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "apflow-sources")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")

	// Log defaults
	v.SetDefault("log.level", "debug")

	// Confidence defaults
	v.SetDefault("confidence.high", 0.75)
	v.SetDefault("confidence.medium", 0.50)

	// Line item defaults
	v.SetDefault("lineitem.tolerance", "0.01")

	// Match defaults
	v.SetDefault("match.vendor_weight", 0.40)
	v.SetDefault("match.amount_weight", 0.30)
	v.SetDefault("match.date_weight", 0.15)
	v.SetDefault("match.reference_weight", 0.15)
	v.SetDefault("match.accept_threshold", 0.75)
	v.SetDefault("match.amount_band_pct", 5)
	v.SetDefault("match.date_window_days", 3)
	v.SetDefault("match.cache_ttl_secs", 300)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.extract_rate_per_sec", 2)
	v.SetDefault("queue.extract_burst", 4)
	v.SetDefault("queue.primary_url", "")
	v.SetDefault("queue.fallback_url", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"db.host":                    "APFLOW_DB_HOST",
		"db.port":                    "APFLOW_DB_PORT",
		"db.user":                    "APFLOW_DB_USER",
		"db.password":                "APFLOW_DB_PASSWORD",
		"db.name":                    "APFLOW_DB_NAME",
		"db.sslmode":                 "APFLOW_DB_SSLMODE",
		"db.max_open":                "APFLOW_DB_MAX_OPEN",
		"db.max_idle":                "APFLOW_DB_MAX_IDLE",
		"s3.region":                  "APFLOW_S3_REGION",
		"s3.bucket":                  "APFLOW_S3_BUCKET",
		"s3.endpoint":                "APFLOW_S3_ENDPOINT",
		"s3.access_key":              "APFLOW_S3_ACCESS_KEY",
		"s3.secret_key":              "APFLOW_S3_SECRET_KEY",
		"log.level":                  "APFLOW_LOG_LEVEL",
		"confidence.high":            "APFLOW_CONFIDENCE_HIGH",
		"confidence.medium":          "APFLOW_CONFIDENCE_MEDIUM",
		"lineitem.tolerance":         "APFLOW_LINEITEM_TOLERANCE",
		"match.vendor_weight":        "APFLOW_MATCH_VENDOR_WEIGHT",
		"match.amount_weight":        "APFLOW_MATCH_AMOUNT_WEIGHT",
		"match.date_weight":          "APFLOW_MATCH_DATE_WEIGHT",
		"match.reference_weight":     "APFLOW_MATCH_REFERENCE_WEIGHT",
		"match.accept_threshold":     "APFLOW_MATCH_ACCEPT_THRESHOLD",
		"match.amount_band_pct":      "APFLOW_MATCH_AMOUNT_BAND_PCT",
		"match.date_window_days":     "APFLOW_MATCH_DATE_WINDOW_DAYS",
		"match.cache_ttl_secs":       "APFLOW_MATCH_CACHE_TTL_SECS",
		"queue.poll_interval_secs":   "APFLOW_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":          "APFLOW_QUEUE_MAX_RETRIES",
		"queue.concurrency":          "APFLOW_QUEUE_CONCURRENCY",
		"queue.extract_rate_per_sec": "APFLOW_QUEUE_EXTRACT_RATE_PER_SEC",
		"queue.extract_burst":        "APFLOW_QUEUE_EXTRACT_BURST",
		"queue.primary_url":          "APFLOW_QUEUE_PRIMARY_URL",
		"queue.fallback_url":         "APFLOW_QUEUE_FALLBACK_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level: v.GetString("log.level"),
	}
	cfg.Confidence = ConfidenceConfig{
		High:   v.GetFloat64("confidence.high"),
		Medium: v.GetFloat64("confidence.medium"),
	}
	cfg.LineItem = LineItemConfig{
		Tolerance: v.GetString("lineitem.tolerance"),
	}
	cfg.Match = MatchConfig{
		VendorWeight:    v.GetFloat64("match.vendor_weight"),
		AmountWeight:    v.GetFloat64("match.amount_weight"),
		DateWeight:      v.GetFloat64("match.date_weight"),
		ReferenceWeight: v.GetFloat64("match.reference_weight"),
		AcceptThreshold: v.GetFloat64("match.accept_threshold"),
		AmountBandPct:   v.GetFloat64("match.amount_band_pct"),
		DateWindowDays:  v.GetInt("match.date_window_days"),
		CacheTTLSecs:    v.GetInt("match.cache_ttl_secs"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs:  v.GetInt("queue.poll_interval_secs"),
		MaxRetries:        v.GetInt("queue.max_retries"),
		Concurrency:       v.GetInt("queue.concurrency"),
		ExtractRatePerSec: v.GetFloat64("queue.extract_rate_per_sec"),
		ExtractBurst:      v.GetInt("queue.extract_burst"),
		PrimaryURL:        v.GetString("queue.primary_url"),
		FallbackURL:       v.GetString("queue.fallback_url"),
	}

	return cfg, nil
}
