package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL,required"`
	CronSecret           string `env:"CRON_SECRET"`
	DailyAPIKey          string `env:"DAILY_API_KEY"`
	ResendAPIKey         string `env:"RESEND_API_KEY"`
	EmailFrom            string `env:"EMAIL_FROM" envDefault:"MYC <hello@myc-roast.com>"`
	OpsEmail             string `env:"OPS_EMAIL"`
	SweepIntervalSeconds int    `env:"SWEEP_INTERVAL_SECONDS" envDefault:"45"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SweepInterval is the cadence of the expiry sweeper. The 2-minute turn
// timeout is enforced with this much added latency at worst.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c *Config) Validate(isProduction bool) error {
	if c.SweepIntervalSeconds < 15 || c.SweepIntervalSeconds > 300 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be between 15 and 300, got %d", c.SweepIntervalSeconds)
	}

	if c.DailyAPIKey == "" {
		log.Warn().Msg("DAILY_API_KEY is empty: meeting links will use public Jitsi rooms")
	}
	if c.ResendAPIKey == "" {
		log.Warn().Msg("RESEND_API_KEY is empty: notification emails disabled, logging instead")
	}

	if isProduction && c.CronSecret == "" {
		log.Warn().Msg("CRON_SECRET is empty in production: the auto-skip endpoint is unauthenticated")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
