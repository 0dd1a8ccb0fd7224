package authcore

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := validateConfig(DefaultConfig()); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	mutations := map[string]func(*Config){
		"zero token TTL":     func(c *Config) { c.Token.TTL = 0 },
		"negative leeway":    func(c *Config) { c.Token.Leeway = -time.Second },
		"huge leeway":        func(c *Config) { c.Token.Leeway = 5 * time.Minute },
		"zero code TTL":      func(c *Config) { c.Code.TTL = 0 },
		"zero resend window": func(c *Config) { c.Resend.MinInterval = 0 },
		"unknown role":       func(c *Config) { c.Account.DefaultRole = "superuser" },
		"zero min length":    func(c *Config) { c.Password.MinLength = 0 },
	}

	for name, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestBuilderRequiresStoreAndKey(t *testing.T) {
	if _, err := New().WithSigningKey([]byte("k")).Build(); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := New().WithStore(newMockStore()).Build(); err == nil {
		t.Fatal("expected error without signing key")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	builder := New().
		WithConfig(testConfig()).
		WithStore(newMockStore()).
		WithSigningKey([]byte("test-signing-key"))

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("expected error from second Build")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Code.TTL = 0

	_, err := New().
		WithConfig(cfg).
		WithStore(newMockStore()).
		WithSigningKey([]byte("test-signing-key")).
		Build()
	if err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestBuilderWithRedisLimiter(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine, err := New().
		WithConfig(testConfig()).
		WithStore(newMockStore()).
		WithSigningKey([]byte("test-signing-key")).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, ok := engine.resendLimiter.(*redisResendLimiter); !ok {
		t.Fatalf("expected redis limiter, got %T", engine.resendLimiter)
	}
}
