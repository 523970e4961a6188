package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	cache "github.com/krisalay/cachemanager"
	"github.com/krisalay/cachemanager/backend/memory"
	"github.com/krisalay/cachemanager/backend/redis"
	"github.com/krisalay/cachemanager/eviction"
	"github.com/krisalay/cachemanager/loader"
	"github.com/krisalay/cachemanager/metrics"
	"github.com/krisalay/cachemanager/types"
)

// backend is what the demo needs from a backing store.
type backend interface {
	types.Store[string, string]
	Delete(key string)
}

// redisBackend adapts redis.Store's Delete to the demo's signature.
type redisBackend struct{ *redis.Store }

func (b redisBackend) Delete(key string) { _ = b.Store.Delete(context.Background(), key) }

func main() {
	var (
		redisAddr = flag.String("redis", "", "Redis address for the backing store (default: in-process store)")
		traceOn   = flag.Bool("trace", false, "print backend load spans to stdout")
		verbosity = flag.Int("v", 0, "log verbosity")
	)
	flag.Parse()

	stdr.SetVerbosity(*verbosity)
	log := stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags))
	otel.SetLogger(log)

	if err := run(log, *redisAddr, *traceOn); err != nil {
		log.Error(err, "demo failed")
		os.Exit(1)
	}
}

func run(log logr.Logger, redisAddr string, traceOn bool) error {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	// ---------------- System Config ----------------
	fmt.Println("CACHE MODE      : WRITE-BACK")
	fmt.Println("EVICTION POLICY : LRU")
	fmt.Println("TTL             : 2s (expire after write)")
	fmt.Println("REFRESH AHEAD   : 500ms")
	fmt.Println("CAPACITY        : 20 keys")

	// ---------------- Tracing ----------------
	var tp trace.TracerProvider = otel.GetTracerProvider()
	if traceOn {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("stdout exporter: %w", err)
		}
		sdk := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer func() { _ = sdk.Shutdown(context.Background()) }()
		tp = sdk
	}

	// ---------------- Backing Store ----------------
	var store backend
	if redisAddr != "" {
		rs := redis.New(redisAddr, "", 0, "cachemanager:demo:", time.Hour)
		defer rs.Close()
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("redis %s: %w", redisAddr, err)
		}
		store = redisBackend{rs}
		fmt.Println("BACKEND         : redis", redisAddr)
	} else {
		ms, err := memory.New[string](10000)
		if err != nil {
			return fmt.Errorf("memory store: %w", err)
		}
		defer ms.Close()
		store = ms
		fmt.Println("BACKEND         : in-process")
	}

	_ = store.Put(ctx, "a", "alpha")
	_ = store.Put(ctx, "b", "beta")

	// ---------------- Loader ----------------
	var l types.Loader[string, string] = store
	l = loader.NewRetrying(l, loader.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   20 * time.Millisecond,
		MaxDelay:    200 * time.Millisecond,
		Jitter:      0.2,
	})
	l = loader.NewRateLimited(l, 1000, 100)
	l = loader.NewTraced(l, tp)

	// ---------------- Metrics ----------------
	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheus(reg, "demo", "main")
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// ---------------- Cache ----------------
	c, err := cache.NewWithLoader[string, string](2*time.Second, 20, loader.WithWriter[string, string](l, store),
		cache.WithEvictionPolicy(eviction.LRU),
		cache.WithWriteBack(1024),
		cache.WithRefreshAhead(500*time.Millisecond),
		cache.WithCleanupInterval(time.Second),
		cache.WithMetrics(prom),
		cache.WithLogger(log),
	)
	if err != nil {
		return err
	}

	var evicted atomic.Int64
	c.OnEvict(func(_, _ string, reason cache.Reason) {
		if reason == cache.EvictCapacity {
			evicted.Add(1)
		}
	})

	// ====================================================
	fmt.Println("\n==================== 1) CACHE MISS ====================")
	v, ok, err := c.Get(ctx, "a")
	fmt.Println("CACHE  → GET a =", v, ok, err)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE HIT ====================")
	v, ok, err = c.Get(ctx, "a")
	fmt.Println("CACHE  → GET a =", v, ok, err)

	// ====================================================
	fmt.Println("\n==================== 3) TTL EXPIRATION ====================")
	_ = c.PutWithTTL(ctx, "x", "temp-value", time.Second)
	fmt.Println("CACHE  → PUT x (TTL = 1s), TTL now", c.TTL("x").Round(time.Millisecond))

	time.Sleep(1100 * time.Millisecond)

	v, ok = c.GetCachedOnly("x")
	fmt.Println("CACHE  → GET x after TTL =", v, ok)

	// ====================================================
	fmt.Println("\n==================== 4) SINGLEFLIGHT ====================")

	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, _, _ := c.Get(ctx, "b")
			fmt.Printf("GOROUTINE-%d → GET b = %v\n", i, val)
		}()
	}
	wg.Wait()

	// ====================================================
	fmt.Println("\n==================== 5) EVICTION ====================")

	for i := range 50 {
		_ = c.Put(ctx, fmt.Sprintf("k%d", i), fmt.Sprint(i))
	}
	fmt.Println("CACHE  → evicted", evicted.Load(), "keys, full:", c.IsFull())

	v, ok = c.GetCachedOnly("a")
	fmt.Println("CACHE  → GET a after eviction =", v, ok)

	// ====================================================
	fmt.Println("\n==================== 6) REMOVE ====================")

	c.Remove("b")
	store.Delete("b")
	fmt.Println("CACHE  → REMOVE b")

	v, ok, err = c.Get(ctx, "b")
	fmt.Println("CACHE  → GET b after remove =", v, ok, err)

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	if err := c.Close(); err != nil {
		return err
	}
	fmt.Println("SYSTEM → cache closed cleanly")

	v, err = store.Load(ctx, "k49")
	fmt.Println("STORE  → k49 after write-back flush =", v, err)

	// ====================================================
	printStats(c.Stats())
	return printMetrics(reg)
}

func printStats(st cache.Stats) {
	fmt.Println("\n==================== STATS ====================")
	fmt.Printf("HITS        : %d\n", st.Hits)
	fmt.Printf("MISSES      : %d\n", st.Misses)
	fmt.Printf("EVICTIONS   : %d\n", st.Evictions)
	fmt.Printf("EXPIRATIONS : %d\n", st.Expirations)
	fmt.Printf("ENTRIES     : %d\n", st.EntriesCount)
	fmt.Printf("HIT RATIO   : %.2f\n", st.HitRatio())
}

func printMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	fmt.Println("\n==================== PROMETHEUS ====================")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Printf("%-36s %v\n", mf.GetName(), m.GetCounter().GetValue())
		}
	}
	return nil
}
