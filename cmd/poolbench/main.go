// Command poolbench drives a ringpool object pool under load: a single
// claimant goroutine borrows objects as fast as it can while a configurable
// number of returner goroutines hand them back, and the run reports identity
// and wait statistics at the end.
package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ringforge/ringpool/pkg/config"
	"github.com/ringforge/ringpool/pkg/logger"
	"github.com/ringforge/ringpool/pkg/metrics"
	"github.com/ringforge/ringpool/pkg/objpool"
	"github.com/ringforge/ringpool/pkg/ringbuf"
)

var version = "0.1.0"

func main() {
	var cfgFile string

	root := &cobra.Command{
		Use:     "poolbench",
		Short:   "Load and invariant harness for the ringpool object pool",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cfgFile)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgFile, "config", "", "optional YAML config file")
	flags.Int("capacity", 1024, "pool capacity (power of two)")
	flags.Int("returners", 4, "number of returner goroutines")
	flags.Duration("duration", 10*time.Second, "run duration")
	flags.Bool("allocate-on-empty", false, "allocate instead of blocking on exhaustion")
	flags.String("wait", "blocking", "wait strategy: blocking, timeout, yielding")
	flags.Duration("wait-timeout", time.Second, "per-wait bound for the timeout strategy")
	flags.Duration("leak-timeout", 10*time.Second, "leak detector deadline, 0 disables")
	flags.String("metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090")
	flags.String("log-level", "info", "log level")

	viper.SetEnvPrefix("POOLBENCH")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "poolbench: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig layers flag and environment overrides on top of an optional
// YAML file, which in turn overrides the built-in defaults.
func resolveConfig(cfgFile string) (*config.BenchConfig, error) {
	cfg := config.Default()
	if cfgFile != "" {
		if err := config.Load(cfgFile, cfg); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("capacity", cfg.Capacity)
	viper.SetDefault("returners", cfg.Returners)
	viper.SetDefault("duration", cfg.Duration)
	viper.SetDefault("allocate-on-empty", cfg.AllocateOnEmpty)
	viper.SetDefault("wait", cfg.WaitStrategy)
	viper.SetDefault("wait-timeout", cfg.WaitTimeout)
	viper.SetDefault("leak-timeout", cfg.LeakTimeout)
	viper.SetDefault("metrics-addr", cfg.MetricsAddr)
	viper.SetDefault("log-level", cfg.LogLevel)

	cfg.Capacity = viper.GetInt("capacity")
	cfg.Returners = viper.GetInt("returners")
	cfg.Duration = viper.GetDuration("duration")
	cfg.AllocateOnEmpty = viper.GetBool("allocate-on-empty")
	cfg.WaitStrategy = viper.GetString("wait")
	cfg.WaitTimeout = viper.GetDuration("wait-timeout")
	cfg.LeakTimeout = viper.GetDuration("leak-timeout")
	cfg.MetricsAddr = viper.GetString("metrics-addr")
	cfg.LogLevel = viper.GetString("log-level")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// benchObject is the pooled type driven through the harness. Its identity
// comes from a counter owned by the harness and injected into the factory,
// never from shared global state.
type benchObject struct {
	pool    *objpool.Pool[*benchObject]
	id      uint64
	payload [64]byte
}

// ReturnToPool implements objpool.Poolable.
func (o *benchObject) ReturnToPool() error {
	return o.pool.ReturnObject(o)
}

// returnerStats accumulates per-returner identity accounting.
type returnerStats struct {
	Unique     int   `json:"unique"`
	Duplicates int64 `json:"duplicates"`
	Returned   int64 `json:"returned"`
}

// report is the end-of-run summary printed as JSON.
type report struct {
	Borrows         int64           `json:"borrows"`
	BorrowErrors    int64           `json:"borrow_errors"`
	UniqueObjects   int             `json:"unique_objects"`
	ObjectsCreated  int64           `json:"objects_created"`
	ClaimantWaits   int64           `json:"claimant_waits"`
	ThroughputPerS  float64         `json:"throughput_per_sec"`
	DurationSeconds float64         `json:"duration_seconds"`
	Returners       []returnerStats `json:"returners"`
}

func run(cfg *config.BenchConfig) error {
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: "console"}); err != nil {
		return err
	}
	log := logger.Get()
	defer func() { _ = logger.Sync() }()

	var idCounter atomic.Uint64

	opts := []objpool.Option[*benchObject]{
		objpool.WithName[*benchObject]("poolbench"),
		objpool.WithLogger[*benchObject](log),
		objpool.WithLeakTimeout[*benchObject](cfg.LeakTimeout),
	}
	if cfg.AllocateOnEmpty {
		opts = append(opts, objpool.WithAllocateOnEmpty[*benchObject]())
	} else {
		opts = append(opts, objpool.WithWaitStrategy[*benchObject](buildStrategy(cfg)))
	}

	pool, err := objpool.New(cfg.Capacity, func(owner *objpool.Pool[*benchObject]) *benchObject {
		return &benchObject{pool: owner, id: idCounter.Add(1)}
	}, opts...)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		prometheus.MustRegister(metrics.NewPoolCollector(pool))
		go func() {
			log.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := http.ListenAndServe(cfg.MetricsAddr, promhttp.Handler()); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	log.Info("starting pool load test",
		zap.Int("capacity", cfg.Capacity),
		zap.Int("returners", cfg.Returners),
		zap.Duration("duration", cfg.Duration),
		zap.Bool("allocate_on_empty", cfg.AllocateOnEmpty),
		zap.String("wait_strategy", cfg.WaitStrategy))

	queues := make([]chan *benchObject, cfg.Returners)
	stats := make([]returnerStats, cfg.Returners)
	var wg sync.WaitGroup

	queueCap := cfg.Capacity / cfg.Returners
	if queueCap < 1 {
		queueCap = 1
	}

	for i := 0; i < cfg.Returners; i++ {
		queues[i] = make(chan *benchObject, queueCap)
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			seen := make(map[uint64]struct{}, cfg.Capacity)
			for obj := range queues[idx] {
				if _, dup := seen[obj.id]; dup {
					stats[idx].Duplicates++
				} else {
					seen[obj.id] = struct{}{}
				}
				if err := obj.ReturnToPool(); err != nil {
					log.Error("return failed", zap.Error(err))
					return
				}
				stats[idx].Returned++
			}
			stats[idx].Unique = len(seen)
		}(i)
	}

	rep := report{Returners: stats}
	seen := make(map[uint64]struct{}, cfg.Capacity)
	deadline := time.Now().Add(cfg.Duration)
	start := time.Now()

	for time.Now().Before(deadline) {
		obj, err := pool.Borrow()
		if err != nil {
			rep.BorrowErrors++
			log.Error("borrow failed", zap.Error(err))
			break
		}
		seen[obj.id] = struct{}{}
		rep.Borrows++
		queues[int(rep.Borrows)%cfg.Returners] <- obj
	}

	for _, q := range queues {
		close(q)
	}
	wg.Wait()

	elapsed := time.Since(start)
	rep.UniqueObjects = len(seen)
	rep.ObjectsCreated = pool.ObjectsCreated()
	rep.ClaimantWaits = pool.WaitCount()
	rep.DurationSeconds = elapsed.Seconds()
	rep.ThroughputPerS = float64(rep.Borrows) / elapsed.Seconds()
	rep.Returners = stats

	out, err := gojson.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	log.Info("pool load test complete",
		zap.Int64("borrows", rep.Borrows),
		zap.Int("unique_objects", rep.UniqueObjects),
		zap.Int64("objects_created", rep.ObjectsCreated),
		zap.Int64("claimant_waits", rep.ClaimantWaits))
	return nil
}

func buildStrategy(cfg *config.BenchConfig) ringbuf.WaitStrategy {
	switch cfg.WaitStrategy {
	case "timeout":
		return ringbuf.NewTimeoutBlockingStrategy(cfg.WaitTimeout)
	case "yielding":
		return ringbuf.NewYieldingStrategy()
	default:
		return ringbuf.NewBlockingStrategy()
	}
}
