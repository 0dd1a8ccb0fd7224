package authcore

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Zero values are not usable;
// start from [DefaultConfig] and override what you need.
type Config struct {
	Token    TokenConfig
	Code     CodeConfig
	Resend   ResendConfig
	Password PasswordConfig
	Account  AccountConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig controls session-token issuance and parsing.
type TokenConfig struct {
	// TTL is the fixed token lifetime from issuance. Tokens are not
	// revocable before expiry; there is no server-side session table.
	TTL    time.Duration
	Issuer string
	// Leeway tolerates small clock skew when validating exp/iat.
	Leeway time.Duration
}

// CodeConfig controls the one-time code lifecycle shared by verification
// and recovery codes.
type CodeConfig struct {
	// TTL is how long a freshly issued code stays valid.
	TTL time.Duration
}

// ResendConfig controls the forced-resend limiter.
type ResendConfig struct {
	// MinInterval is the minimum gap between forced resends per identity.
	MinInterval time.Duration
	// RedisPrefix namespaces limiter keys when a Redis client is supplied.
	RedisPrefix string
}

// PasswordConfig holds the Argon2id parameters. Memory is in KB.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MinLength is the minimum accepted password length in bytes.
	MinLength int
}

// AccountConfig controls registration defaults.
type AccountConfig struct {
	// DefaultRole is assigned to every registered account.
	DefaultRole Role
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is full.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms additionally buckets Authenticate latency.
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: 1-day tokens, 30-minute
// codes, a 30-second forced-resend window, and moderate Argon2id cost.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:    24 * time.Hour,
			Leeway: 30 * time.Second,
		},
		Code: CodeConfig{
			TTL: 30 * time.Minute,
		},
		Resend: ResendConfig{
			MinInterval: 30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   6,
		},
		Account: AccountConfig{
			DefaultRole: RoleUser,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Token.TTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	if cfg.Token.Leeway < 0 || cfg.Token.Leeway > 2*time.Minute {
		return errors.New("token leeway out of range")
	}
	if cfg.Code.TTL <= 0 {
		return errors.New("code TTL must be positive")
	}
	if cfg.Resend.MinInterval <= 0 {
		return errors.New("resend interval must be positive")
	}
	if cfg.Account.DefaultRole != RoleUser && cfg.Account.DefaultRole != RoleAdmin {
		return errors.New("default role must be user or admin")
	}
	if cfg.Password.MinLength < 1 {
		return errors.New("password min length must be >= 1")
	}
	return nil
}
