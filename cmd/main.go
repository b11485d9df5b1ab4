package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"objbench/benchmark"
	"objbench/config"
	"objbench/logger"
	"objbench/metrics"
	"objbench/report"
)

func main() {
	os.Exit(run())
}

// cliFlags holds the command-line flags. Flags that were set explicitly override the config file.
type cliFlags struct {
	configFile          string
	hosts               string
	objectCount         int
	payloadFile         string
	payloadSize         int64
	vus                 int
	iterations          int
	duration            time.Duration
	rateLimit           int
	setupConcurrency    int
	timeout             time.Duration
	bearerToken         string
	metricsAddr         string
	useProductionLogger bool
	quiet               bool
}

func (f *cliFlags) register(fs *flag.FlagSet) {
	defaults := config.Default()

	fs.StringVar(&f.configFile, "config", "", "Path to a .toml or .yaml config file")
	fs.StringVar(&f.hosts, "hosts", strings.Join(defaults.Hosts, ","), "Comma separated base URLs of the object store nodes")
	fs.IntVar(&f.objectCount, "object-count", defaults.ObjectCount, "Number of objects to provision")
	fs.StringVar(&f.payloadFile, "payload", defaults.PayloadFile, "File uploaded as content of every object (empty: random bytes)")
	fs.Int64Var(&f.payloadSize, "payload-size", defaults.PayloadSize, "Size of the random payload in bytes when no payload file is given")
	fs.IntVar(&f.vus, "vus", defaults.VUs, "Number of concurrent virtual users, must not exceed the object count")
	fs.IntVar(&f.iterations, "iterations", defaults.Iterations, "Reads per virtual user (0 means until the duration elapses)")
	fs.DurationVar(&f.duration, "duration", defaults.Duration, "Duration of the load phase (0 means no limit)")
	fs.IntVar(&f.rateLimit, "rate-limit", defaults.RateLimit, "Max reads per second (0 means no limit)")
	fs.IntVar(&f.setupConcurrency, "setup-concurrency", defaults.SetupConcurrency, "Parallel requests during setup and teardown")
	fs.DurationVar(&f.timeout, "timeout", defaults.RequestTimeout, "Timeout of a single request")
	fs.StringVar(&f.bearerToken, "bearer-token", "", "Bearer token sent with every request")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Address to expose Prometheus metrics on, e.g. :9100 (empty: disabled)")
	fs.BoolVar(&f.useProductionLogger, "production-logger", false, "Log json instead of human readable output")
	fs.BoolVar(&f.quiet, "quiet", false, "Hide progress bars")
}

// loadConfig reads the config file named by the flags and overlays every flag that was set on fs.
func (f *cliFlags) loadConfig(fs *flag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return config.Config{}, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "hosts":
			cfg.Hosts = splitHosts(f.hosts)
		case "object-count":
			cfg.ObjectCount = f.objectCount
		case "payload":
			cfg.PayloadFile = f.payloadFile
		case "payload-size":
			cfg.PayloadSize = f.payloadSize
		case "vus":
			cfg.VUs = f.vus
		case "iterations":
			cfg.Iterations = f.iterations
		case "duration":
			cfg.Duration = f.duration
		case "rate-limit":
			cfg.RateLimit = f.rateLimit
		case "setup-concurrency":
			cfg.SetupConcurrency = f.setupConcurrency
		case "timeout":
			cfg.RequestTimeout = f.timeout
		case "bearer-token":
			cfg.BearerToken = f.bearerToken
		case "metrics-addr":
			cfg.MetricsAddr = f.metricsAddr
		}
	})
	return cfg, nil
}

func run() int {
	var flags cliFlags
	flags.register(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.loadConfig(flag.CommandLine)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		return 1
	}

	log, loggerCleanup, err := logger.New(flags.useProductionLogger)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return 1
	}
	defer loggerCleanup()

	log.Infow("Logging load test configuration",
		"hosts", cfg.Hosts,
		"objectCount", cfg.ObjectCount,
		"payloadFile", cfg.PayloadFile,
		"vus", cfg.VUs,
		"iterations", cfg.Iterations,
		"duration", cfg.Duration,
		"rateLimit", cfg.RateLimit,
		"setupConcurrency", cfg.SetupConcurrency,
		"requestTimeout", cfg.RequestTimeout,
		// the bearer token is intentionally omitted because credentials shouldn't be logged
		"metricsAddr", cfg.MetricsAddr,
	)
	if cfg.VUs > cfg.ObjectCount {
		log.Warnw("More virtual users than objects, the excess virtual users will abort",
			"vus", cfg.VUs, "objectCount", cfg.ObjectCount)
	}

	// Set system resource limits for high-performance testing
	if err := benchmark.SetMaxResources(log); err != nil {
		log.Warnw("Failed to adjust system resources", "err", err)
	}

	payload, err := benchmark.LoadPayload(cfg.PayloadFile, cfg.PayloadSize)
	if err != nil {
		log.Errorw("Failed to load payload", "err", err, "payloadFile", cfg.PayloadFile)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.MetricsAddr, reg, log); err != nil {
				log.Errorw("Metrics server stopped", "err", err)
			}
		}()
	}

	lt, err := newLoadTest(cfg, payload, m, flags.quiet, log)
	if err != nil {
		log.Errorw("Failed to prepare load test", "err", err)
		return 1
	}

	summary, err := lt.Run(ctx)
	report.DisplayResults(os.Stdout, summary)

	if err != nil {
		log.Errorw("Load test failed", "err", err, "vuWithoutObject", errors.Is(err, benchmark.ErrVUWithoutObject))
		return 1
	}
	if lt.Checks.Failed() {
		log.Warnw("Some checks failed")
	}
	return 0
}

func newLoadTest(cfg config.Config, payload []byte, m *metrics.Metrics, quiet bool, log *zap.SugaredLogger) (*benchmark.LoadTest, error) {
	runID, err := benchmark.NewRunID()
	if err != nil {
		return nil, err
	}

	objects, err := benchmark.NewObjectSet(runID, cfg.ObjectCount, cfg.Hosts)
	if err != nil {
		return nil, fmt.Errorf("compute object urls: %w", err)
	}

	log.Debugw("Computed object URLs", "runID", runID, "urls", objects.URLs())

	client, err := benchmark.NewObjectClient(benchmark.ClientOptions{
		VUs:         cfg.VUs,
		Timeout:     cfg.RequestTimeout,
		BearerToken: cfg.BearerToken,
	}, m, log)
	if err != nil {
		return nil, err
	}

	return &benchmark.LoadTest{
		Objects: objects,
		Client:  client,
		Checks:  benchmark.NewChecks(m),
		Metrics: m,
		Payload: payload,
		Params: benchmark.BenchmarkParams{
			VUs:              cfg.VUs,
			Iterations:       cfg.Iterations,
			Duration:         cfg.Duration,
			RateLimit:        cfg.RateLimit,
			SetupConcurrency: cfg.SetupConcurrency,
			Quiet:            quiet,
		},
		Log: log.With("runID", runID),
	}, nil
}

func splitHosts(raw string) []string {
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
