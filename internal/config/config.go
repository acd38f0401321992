package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Host     string `env:"QUESTLOG_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"PORT" envDefault:"3333"`
	Store    string `env:"QUESTLOG_STORE" envDefault:"sqlite"`
	DataPath string `env:"QUESTLOG_DATA_PATH" envDefault:"./data/questlog.db"`
	Timezone string `env:"QUESTLOG_TIMEZONE" envDefault:"Local"`
	// WeekStart is a weekday name, e.g. "monday".
	WeekStart string `env:"QUESTLOG_WEEK_START" envDefault:"monday"`

	RateLimit float64 `env:"QUESTLOG_RATE_LIMIT" envDefault:"20"`
	RateBurst int     `env:"QUESTLOG_RATE_BURST" envDefault:"40"`

	MetricsUser string `env:"METRICS_USER"`
	MetricsPass string `env:"METRICS_PASS"`

	FCMServiceAccountJSON string   `env:"FCM_SERVICE_ACCOUNT_JSON"`
	FCMCredentialsFile    string   `env:"FCM_CREDENTIALS_FILE"`
	FCMDeviceTokens       []string `env:"FCM_DEVICE_TOKENS" envSeparator:","`
	DispatchWorkers       int      `env:"QUESTLOG_DISPATCH_WORKERS" envDefault:"2"`
}

// Load reads an optional .env file and then the process environment.
func Load(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.FirstWeekday(); err != nil {
		return nil, err
	}
	if cfg.DispatchWorkers < 1 {
		cfg.DispatchWorkers = 1
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid QUESTLOG_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) FirstWeekday() (time.Weekday, error) {
	return ParseWeekday(c.WeekStart)
}

func (c *Config) PushConfigured() bool {
	return c.FCMServiceAccountJSON != "" || c.FCMCredentialsFile != ""
}

func ParseWeekday(name string) (time.Weekday, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == want || strings.ToLower(d.String()[:3]) == want {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("invalid week start %q", name)
}
