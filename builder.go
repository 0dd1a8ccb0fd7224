package authcore

import (
	"errors"

	"github.com/projectary/authcore/jwt"
	"github.com/projectary/authcore/password"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single-use: Build consumes it.
type Builder struct {
	config Config
	redis  *redis.Client

	store  Store
	mailer Mailer

	signingKey []byte

	auditSink AuditSink

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the account backend. Required.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithMailer sets the code delivery channel. An engine built without a
// mailer still serves Login and Authenticate, but every operation that
// sends a code fails with ErrMailerNotConfigured.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithSigningKey sets the HS256 secret for session tokens. Required.
func (b *Builder) WithSigningKey(key []byte) *Builder {
	b.signingKey = key
	return b
}

// WithRedis switches the resend limiter from the in-process map to a
// shared redis keyspace, so the cooldown holds across replicas.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("account store required")
	}
	if len(b.signingKey) == 0 {
		return nil, errors.New("signing key required")
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
		mailer: b.mailer,
	}

	if b.redis != nil {
		engine.resendLimiter = newRedisResendLimiter(b.redis, cfg.Resend.MinInterval, cfg.Resend.RedisPrefix)
	} else {
		engine.resendLimiter = newMemoryResendLimiter(cfg.Resend.MinInterval)
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = hasher

	jm, err := jwt.NewManager(jwt.Config{
		TTL:    cfg.Token.TTL,
		Secret: append([]byte(nil), b.signingKey...),
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
