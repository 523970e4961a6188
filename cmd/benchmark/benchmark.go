package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/cachemanager"
	"github.com/krisalay/cachemanager/backend/memory"
	"github.com/krisalay/cachemanager/eviction"
	"github.com/krisalay/cachemanager/shard"
	"github.com/krisalay/cachemanager/types"
)

func main() {
	var (
		capacity    = flag.Int("capacity", 200000, "cache capacity")
		keySpace    = flag.Int("keys", 300000, "distinct keys in the backing store")
		goroutines  = flag.Int("goroutines", 200, "concurrent workers")
		opsPerG     = flag.Int("ops", 5000, "operations per worker")
		writeRatio  = flag.Float64("writes", 0.1, "fraction of operations that are writes")
		policyName  = flag.String("policy", "LRU", "eviction policy: LRU, LFU or FIFO")
		loadLatency = flag.Duration("latency", 0, "simulated backend latency per load")
		shards      = flag.Int("shards", 1, "split the cache into this many shards (LRU becomes per shard)")
	)
	flag.Parse()

	if err := run(*capacity, *keySpace, *goroutines, *opsPerG, *writeRatio, eviction.PolicyType(*policyName), *loadLatency, *shards); err != nil {
		fmt.Fprintln(os.Stderr, "benchmark:", err)
		os.Exit(1)
	}
}

// benchCache is the part of the cache API the load test drives.
type benchCache interface {
	Get(ctx context.Context, key string) (int, bool, error)
	Put(ctx context.Context, key string, value int) error
	Stats() cache.Stats
	Close() error
}

func newBenchCache(shards, capacity int, l types.Loader[string, int], policy eviction.PolicyType) (benchCache, error) {
	opt := cache.WithEvictionPolicy(policy)
	if shards > 1 {
		return shard.NewWithLoader[string, int](shards, time.Minute, capacity, l, opt)
	}
	return cache.NewWithLoader[string, int](time.Minute, capacity, l, opt)
}

func run(capacity, keySpace, goroutines, opsPerG int, writeRatio float64, policy eviction.PolicyType, latency time.Duration, shards int) error {
	ctx := context.Background()

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Key Space    :", keySpace)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Write Ratio  :", writeRatio)
	fmt.Println("Policy       :", policy)
	fmt.Println("Load Latency :", latency)
	fmt.Println("Shards       :", shards)
	fmt.Println("---------------------------------")

	// ---------------- Backing Store ----------------
	store, err := memory.New[int](int64(keySpace))
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Println("Filling backing store...")
	for i := range keySpace {
		_ = store.Put(ctx, key(i), i)
	}

	var l types.Loader[string, int] = store
	if latency > 0 {
		l = types.LoaderFunc[string, int](func(ctx context.Context, k string) (int, error) {
			time.Sleep(latency)
			return store.Load(ctx, k)
		})
	}

	c, err := newBenchCache(shards, capacity, l, policy)
	if err != nil {
		return err
	}
	defer c.Close()

	// ---------------- Warmup ----------------
	fmt.Println("Warming up cache...")
	for i := range min(capacity, keySpace) {
		_, _, _ = c.Get(ctx, key(i))
	}

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")
	start := time.Now()

	var g errgroup.Group
	for w := range goroutines {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(w), 42))
			// Skewed access: most reads land on a small hot set.
			zipf := rand.NewZipf(rng, 1.1, 1, uint64(keySpace-1))
			for range opsPerG {
				k := key(int(zipf.Uint64()))
				if rng.Float64() < writeRatio {
					if err := c.Put(ctx, k, w); err != nil {
						return err
					}
					continue
				}
				if _, _, err := c.Get(ctx, k); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	duration := time.Since(start)
	totalOps := goroutines * opsPerG
	st := c.Stats()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hit Ratio        : %.2f%%\n", st.HitRatio()*100)
	fmt.Printf("Evictions        : %d\n", st.Evictions)
	fmt.Printf("Entries          : %d\n", st.EntriesCount)
	fmt.Println("=========================================")
	return nil
}

func key(i int) string {
	return fmt.Sprintf("key-%d", i)
}
