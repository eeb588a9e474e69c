package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	goSessionSync "github.com/MrEthical07/goSessionSync"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		contexts  = flag.Int("contexts", 8, "number of concurrent execution contexts")
		writes    = flag.Int("writes", 200, "number of session writes to replay")
		debounce  = flag.Duration("debounce", 100*time.Millisecond, "reload debounce window")
		deadline  = flag.Duration("deadline", 5*time.Second, "per-write convergence deadline")
		redisAddr = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix    = flag.String("prefix", "ss", "storage key prefix")
		origin    = flag.String("origin", "0", "origin namespace shared by all contexts")
	)
	flag.Parse()

	if *contexts < 2 || *writes <= 0 {
		fmt.Fprintln(os.Stderr, "contexts must be >= 2 and writes must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goSessionSync.DefaultConfig()
	cfg.Store.RedisPrefix = *prefix
	cfg.Store.Origin = *origin
	cfg.Sync.DebounceWindow = *debounce

	providers := make([]*goSessionSync.Provider, *contexts)
	for i := range providers {
		p, err := goSessionSync.New().
			WithConfig(cfg).
			WithRedis(client).
			WithContextID(fmt.Sprintf("sim-ctx-%d", i)).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
			os.Exit(1)
		}
		if err := p.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "start failed: %v\n", err)
			os.Exit(1)
		}
		defer p.Close()
		providers[i] = p
	}

	roles := []string{"customer", "salesperson", "manager", "system_admin"}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	var (
		latencies = make([]time.Duration, 0, *writes)
		missed    int
	)

	fmt.Printf("replaying %d writes across %d contexts...\n", *writes, *contexts)
	start := time.Now()
	for i := 0; i < *writes; i++ {
		writer := providers[r.Intn(len(providers))]
		rec := &goSessionSync.SessionRecord{
			UserID:      fmt.Sprintf("u-%d", i),
			Email:       fmt.Sprintf("user%d@example.com", i),
			DisplayName: fmt.Sprintf("User %d", i),
			Role:        roles[r.Intn(len(roles))],
		}

		t0 := time.Now()
		if err := writer.Establish(ctx, rec); err != nil {
			fmt.Fprintf(os.Stderr, "establish failed: %v\n", err)
			os.Exit(1)
		}
		d, ok := awaitConvergence(providers, rec, t0, *deadline)
		if !ok {
			missed++
			continue
		}
		latencies = append(latencies, d)
	}
	total := time.Since(start)

	fmt.Println("---- results ----")
	printStats(total, latencies, missed)
}

// awaitConvergence polls until every context's snapshot carries the written
// record, returning the observed propagation latency.
func awaitConvergence(providers []*goSessionSync.Provider, want *goSessionSync.SessionRecord, t0 time.Time, deadline time.Duration) (time.Duration, bool) {
	for {
		converged := true
		for _, p := range providers {
			snap := p.Snapshot()
			if snap.Record == nil || !snap.Record.Equal(want) {
				converged = false
				break
			}
		}
		if converged {
			return time.Since(t0), true
		}
		if time.Since(t0) > deadline {
			return 0, false
		}
		time.Sleep(time.Millisecond)
	}
}

func printStats(total time.Duration, samples []time.Duration, missed int) {
	if len(samples) == 0 {
		fmt.Printf("writes=0 missed=%d total=%s\n", missed, total.Round(time.Millisecond))
		return
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	fmt.Printf("writes=%d missed=%d total=%s p50=%s p95=%s max=%s\n",
		len(samples),
		missed,
		total.Round(time.Millisecond),
		percentile(samples, 50).Round(time.Microsecond),
		percentile(samples, 95).Round(time.Microsecond),
		samples[len(samples)-1].Round(time.Microsecond),
	)
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
