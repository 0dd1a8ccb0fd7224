// Command authcore-loadtest measures engine throughput against an
// in-memory store: a login phase (dominated by Argon2id verification) and
// an authenticate phase (token parse plus account lookup).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/projectary/authcore"
	"github.com/projectary/authcore/memstore"
)

func main() {
	var (
		accounts    = flag.Int("accounts", 500, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 5000, "operations per phase (login + authenticate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	var client *redis.Client
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := memstore.New()
	engine, err := authcore.New().
		WithStore(store).
		WithMailer(discardMailer{}).
		WithSigningKey([]byte("loadtest-signing-key")).
		WithRedis(client).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	const seedPassword = "loadtest-password"

	fmt.Printf("seeding %d verified accounts...\n", *accounts)
	startSeed := time.Now()
	emails, tokens, err := seedAccounts(ctx, engine, store, *accounts, seedPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		email := emails[r.Intn(len(emails))]
		_, err := engine.Login(ctx, email, seedPassword)
		return err
	})
	authStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		token := tokens[r.Intn(len(tokens))]
		_, err := engine.Authenticate(ctx, token)
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("authenticate", authStats)
}

// seedAccounts creates verified accounts directly through the store, so the
// seed phase pays for one hash instead of one per account, then logs each
// account in once to collect tokens for the authenticate phase.
func seedAccounts(ctx context.Context, engine *authcore.Engine, store *memstore.Store, n int, password string) ([]string, []string, error) {
	emails := make([]string, 0, n)
	tokens := make([]string, 0, n)

	hash, err := seedHash(password)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < n; i++ {
		email := fmt.Sprintf("user-%d@loadtest.local", i)
		account, err := store.CreateAccount(ctx, authcore.CreateAccountInput{
			Name:         fmt.Sprintf("user-%d", i),
			Email:        email,
			PasswordHash: hash,
			Role:         authcore.RoleUser,
		})
		if err != nil {
			return nil, nil, err
		}
		if _, err := store.UpdateAccount(ctx, account.ID, func(a *authcore.Account) error {
			a.EmailVerified = true
			return nil
		}); err != nil {
			return nil, nil, err
		}
		emails = append(emails, email)
	}

	// One login per seeded account to warm the token set.
	for _, email := range emails {
		payload, err := engine.Login(ctx, email, password)
		if err != nil {
			return nil, nil, err
		}
		tokens = append(tokens, payload.Token)
	}

	return emails, tokens, nil
}

// seedHash produces the shared credential hash by registering a throwaway
// account against a scratch engine and reading the stored hash back.
func seedHash(password string) (string, error) {
	scratch := memstore.New()
	engine, err := authcore.New().
		WithStore(scratch).
		WithMailer(discardMailer{}).
		WithSigningKey([]byte("loadtest-signing-key")).
		Build()
	if err != nil {
		return "", err
	}
	defer engine.Close()

	ctx := context.Background()
	payload, err := engine.Register(ctx, authcore.RegisterRequest{
		Name:     "seed",
		Email:    "seed@loadtest.local",
		Password: password,
	})
	if err != nil {
		return "", err
	}
	account, err := scratch.GetAccountByID(ctx, payload.Account.ID)
	if err != nil {
		return "", err
	}
	return account.PasswordHash, nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

type discardMailer struct{}

func (discardMailer) SendVerificationCode(context.Context, string, string) error { return nil }
func (discardMailer) SendRecoveryCode(context.Context, string, string) error     { return nil }
