// Package contextcore provides a top-level convenience entry point that wires
// the context store, artifact store, output queue and tokenizer together from
// a single configuration.
//
// Usage:
//
//	import "github.com/MervinPraison/contextcore"
//
//	core, err := contextcore.New()
//	core, err := contextcore.New(contextcore.WithConfigFile("contextcore.yaml"))
//	core, err := contextcore.New(contextcore.WithLogger(logger))
//
// Each subsystem remains usable on its own; this package only removes the
// assembly boilerplate.
package contextcore

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/MervinPraison/contextcore/artifacts"
	"github.com/MervinPraison/contextcore/config"
	"github.com/MervinPraison/contextcore/internal/metrics"
	"github.com/MervinPraison/contextcore/queue"
	"github.com/MervinPraison/contextcore/store"
	"github.com/MervinPraison/contextcore/tokenizer"
	"github.com/MervinPraison/contextcore/types"
)

// Core bundles the assembled subsystems.
type Core struct {
	// Store is the per-agent conversation log.
	Store *store.ContextStore

	// Artifacts is the file-backed large output store.
	Artifacts *artifacts.Store

	// Queue routes tool outputs inline or to Artifacts by size.
	Queue *queue.OutputQueue

	// Counter is the token counter shared by Store and budget math.
	Counter types.TokenCounter

	config *config.Config
	logger *zap.Logger
}

// Config returns the effective configuration the core was built with.
func (c *Core) Config() config.Config { return *c.config }

type options struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	counter    types.TokenCounter
	registerer prometheus.Registerer
}

// Option configures the core created by [New].
type Option func(*options)

// WithConfigFile loads configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithConfig uses a pre-built configuration, skipping file loading.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTokenCounter overrides the configured tokenizer with a pre-built counter.
func WithTokenCounter(counter types.TokenCounter) Option {
	return func(o *options) { o.counter = counter }
}

// WithMetricsRegisterer sets the Prometheus registerer used when metrics are
// enabled. Defaults to prometheus.DefaultRegisterer.
func WithMetricsRegisterer(registerer prometheus.Registerer) Option {
	return func(o *options) { o.registerer = registerer }
}

// New assembles a Core from configuration.
func New(opts ...Option) (*Core, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		registerer := o.registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		collector = metrics.NewCollector(cfg.Metrics.Namespace, registerer, logger)
	}

	counter := o.counter
	if counter == nil {
		if cfg.Store.TokenizerModel != "" {
			counter = tokenizer.NewCounter(tokenizer.NewTiktoken(cfg.Store.TokenizerModel), logger)
		} else {
			counter = types.NewEstimateTokenizer()
		}
	}

	contextStore := store.NewContextStore(
		store.WithTokenCounter(counter),
		store.WithDefaultBudget(cfg.Store.DefaultBudget),
		store.WithLogger(logger),
		store.WithMetrics(collector),
	)

	artifactOpts := []artifacts.StoreOption{
		artifacts.WithLogger(logger),
		artifacts.WithMetrics(collector),
	}
	if cfg.Queue.RedactSecrets {
		artifactOpts = append(artifactOpts,
			artifacts.WithRedactor(artifacts.NewRedactor(cfg.Queue.SecretPatterns, logger)))
	}
	artifactStore, err := artifacts.NewStore(cfg.Artifacts.BasePath, artifactOpts...)
	if err != nil {
		return nil, fmt.Errorf("build artifact store: %w", err)
	}

	outputQueue, err := queue.NewOutputQueue(cfg.Queue, artifactStore,
		queue.WithLogger(logger),
		queue.WithMetrics(collector),
	)
	if err != nil {
		return nil, fmt.Errorf("build output queue: %w", err)
	}

	return &Core{
		Store:     contextStore,
		Artifacts: artifactStore,
		Queue:     outputQueue,
		Counter:   counter,
		config:    cfg,
		logger:    logger,
	}, nil
}
