package config

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"pricewatch/internal/tracker"
	"pricewatch/pkg/errors"
)

// ProductConfig is one product entry in the YAML file.
type ProductConfig struct {
	ID            string  `yaml:"id"`
	URL           string  `yaml:"url"`
	Name          string  `yaml:"name"`
	PriceSelector string  `yaml:"price_selector"`
	NameSelector  string  `yaml:"name_selector"`
	TargetPrice   float64 `yaml:"target_price"`
}

// AlertSettings configures the email notifier.
type AlertSettings struct {
	Enabled        bool   `yaml:"enabled"`
	RecipientEmail string `yaml:"recipient_email"`
	SenderEmail    string `yaml:"sender_email"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
}

// StoreSettings selects and configures the history store backend.
type StoreSettings struct {
	Driver       string `yaml:"driver"`
	DatabaseFile string `yaml:"database_file"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisDB      int    `yaml:"redis_db"`
}

// FetcherSettings selects the page fetcher implementation.
type FetcherSettings struct {
	Mode           string `yaml:"mode"`
	ChromeAddr     string `yaml:"chrome_addr"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// FileConfig mirrors the layout of config.yaml.
type FileConfig struct {
	Products                []ProductConfig `yaml:"products"`
	ScheduleIntervalMinutes int             `yaml:"schedule_interval_minutes"`
	RequestDelaySeconds     int             `yaml:"request_delay_seconds"`
	BlockSeconds            int             `yaml:"block_seconds"`
	UserAgent               string          `yaml:"user_agent"`
	AlertSettings           AlertSettings   `yaml:"alert_settings"`
	Store                   StoreSettings   `yaml:"store"`
	Fetcher                 FetcherSettings `yaml:"fetcher"`
}

// Config is the validated application configuration.
type Config struct {
	Products         []tracker.ProductSpec
	ScheduleInterval time.Duration
	BlockTime        time.Duration
	AlertSettings    AlertSettings
	Store            StoreSettings
	Fetcher          FetcherSettings
	MemcacheAddr     string
	SMTPPassword     string
	Environment      string
}

const (
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36"
	defaultRequestDelay = 10
	defaultBlockTime    = 300
	defaultFetchTimeout = 20
	defaultSMTPHost     = "smtp.gmail.com"
	defaultSMTPPort     = 465
)

// LoadConfig reads the YAML config file and environment overrides. The path
// comes from CONFIG_FILE, defaulting to config.yaml.
func LoadConfig() (*Config, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("failed to read config file %s", path), err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, errors.NewConfiguration("failed to parse config YAML", err)
	}

	if fc.UserAgent == "" {
		fc.UserAgent = defaultUserAgent
	}
	if fc.RequestDelaySeconds <= 0 {
		fc.RequestDelaySeconds = defaultRequestDelay
	}
	if fc.BlockSeconds <= 0 {
		fc.BlockSeconds = defaultBlockTime
	}
	if fc.Store.Driver == "" {
		fc.Store.Driver = "sqlite"
	}
	if fc.Store.DatabaseFile == "" {
		fc.Store.DatabaseFile = "data/product_prices.db"
	}
	if fc.Fetcher.Mode == "" {
		fc.Fetcher.Mode = "http"
	}
	if fc.Fetcher.TimeoutSeconds <= 0 {
		fc.Fetcher.TimeoutSeconds = defaultFetchTimeout
	}
	if fc.AlertSettings.SMTPHost == "" {
		fc.AlertSettings.SMTPHost = defaultSMTPHost
	}
	if fc.AlertSettings.SMTPPort <= 0 {
		fc.AlertSettings.SMTPPort = defaultSMTPPort
	}

	cfg := &Config{
		ScheduleInterval: time.Duration(fc.ScheduleIntervalMinutes) * time.Minute,
		BlockTime:        time.Duration(fc.BlockSeconds) * time.Second,
		AlertSettings:    fc.AlertSettings,
		Store:            fc.Store,
		Fetcher:          fc.Fetcher,
		MemcacheAddr:     getEnv("MEMCACHE_ADDR", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", os.Getenv("GMAIL_APP_PASSWORD")),
		Environment:      getEnv("PRICEWATCH_ENVIRONMENT", "development"),
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Store.RedisAddr = addr
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Store.RedisDB = n
		}
	}

	delay := time.Duration(fc.RequestDelaySeconds) * time.Second
	for _, pc := range fc.Products {
		id := pc.ID
		if id == "" {
			id = deriveID(pc.URL)
		}
		cfg.Products = append(cfg.Products, tracker.ProductSpec{
			ID:            id,
			URL:           pc.URL,
			Name:          pc.Name,
			PriceSelector: pc.PriceSelector,
			NameSelector:  pc.NameSelector,
			TargetPrice:   pc.TargetPrice,
			UserAgent:     fc.UserAgent,
			RequestDelay:  delay,
		})
	}

	return cfg, nil
}

// Validate checks the configuration for values the tracker cannot run with
func (c *Config) Validate() error {
	if len(c.Products) == 0 {
		return errors.NewConfiguration("no products configured", nil)
	}

	seen := make(map[string]bool, len(c.Products))
	for _, p := range c.Products {
		if p.URL == "" {
			return errors.NewConfiguration(fmt.Sprintf("product %s has no url", p.ID), nil)
		}
		if p.PriceSelector == "" {
			return errors.NewConfiguration(fmt.Sprintf("product %s has no price_selector", p.ID), nil)
		}
		if p.TargetPrice <= 0 {
			return errors.NewConfiguration(fmt.Sprintf("product %s has invalid target_price", p.ID), nil)
		}
		if seen[p.ID] {
			return errors.NewConfiguration(fmt.Sprintf("duplicate product id %s", p.ID), nil)
		}
		seen[p.ID] = true
	}

	switch c.Store.Driver {
	case "sqlite", "redis":
	default:
		return errors.NewConfiguration(fmt.Sprintf("unknown store driver %q", c.Store.Driver), nil)
	}
	if c.Store.Driver == "redis" && c.Store.RedisAddr == "" {
		return errors.NewConfiguration("store driver redis requires redis_addr", nil)
	}

	switch c.Fetcher.Mode {
	case "http", "rendered":
	default:
		return errors.NewConfiguration(fmt.Sprintf("unknown fetcher mode %q", c.Fetcher.Mode), nil)
	}
	if c.Fetcher.Mode == "rendered" && c.Fetcher.ChromeAddr == "" {
		return errors.NewConfiguration("fetcher mode rendered requires chrome_addr", nil)
	}

	if c.AlertSettings.Enabled {
		if c.AlertSettings.RecipientEmail == "" || c.AlertSettings.SenderEmail == "" {
			return errors.NewConfiguration("alerts enabled but sender/recipient email missing", nil)
		}
		if c.SMTPPassword == "" {
			return errors.NewConfiguration("alerts enabled but SMTP_PASSWORD not set", nil)
		}
	}

	return nil
}

// deriveID builds a stable product id from the URL so explicit ids stay
// optional. sha1 keeps it short and stable across runs.
func deriveID(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:12]
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
