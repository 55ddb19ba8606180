package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	Currency string `env:"CURRENCY" envDefault:"NGN"`

	// PlatformFeeRate is the fraction of one entry fee the platform keeps
	// out of the escrowed prize pool.
	PlatformFeeRate float64 `env:"PLATFORM_FEE_RATE" envDefault:"0.05"`

	// VerificationWindow bounds how long players have to submit result
	// evidence after a match ends.
	VerificationWindow time.Duration `env:"VERIFICATION_WINDOW" envDefault:"30m"`

	// StaleMatchTTL is how long an unmatched searching match may sit idle
	// before the background sweep cancels it.
	StaleMatchTTL time.Duration `env:"STALE_MATCH_TTL" envDefault:"1h"`

	// AutoApprove settles a match automatically once both screenshots are
	// in and a winner can be determined from them.
	AutoApprove bool `env:"AUTO_APPROVE" envDefault:"true"`

	// DisputeRefund controls the default resolution when a dispute is
	// closed without naming a winner: refund both entries instead of
	// paying out.
	DisputeRefund bool `env:"DISPUTE_REFUND" envDefault:"true"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.PlatformFeeRate < 0 || cfg.PlatformFeeRate >= 1 {
		return nil, fmt.Errorf("invalid platform fee rate: %f", cfg.PlatformFeeRate)
	}

	return cfg, nil
}
