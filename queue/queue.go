// Package queue decides, per tool output, whether content stays inline in
// the message stream or is offloaded to the artifact store. Without this
// layer a single large tool result would blow the history budget and force
// lossy truncation; diverting it keeps the store's token accounting
// meaningful.
package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MervinPraison/contextcore/artifacts"
	"github.com/MervinPraison/contextcore/internal/metrics"
)

// DefaultInlineMaxBytes is the offload threshold when none is configured.
const DefaultInlineMaxBytes = 32 * 1024

// QueueConfig configures the output queue.
type QueueConfig struct {
	// Enabled turns the queue off entirely when false; Process becomes a
	// passthrough.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// InlineMaxBytes is the serialized size above which content is
	// offloaded. Content of exactly this size stays inline.
	InlineMaxBytes int `yaml:"inline_max_bytes" json:"inline_max_bytes"`

	// RedactSecrets applies SecretPatterns to content before storage.
	RedactSecrets bool `yaml:"redact_secrets" json:"redact_secrets"`

	// SecretPatterns is the ordered pattern list handed to the artifact
	// store's redactor.
	SecretPatterns []string `yaml:"secret_patterns" json:"secret_patterns"`
}

// DefaultQueueConfig returns sensible defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Enabled:        true,
		InlineMaxBytes: DefaultInlineMaxBytes,
		RedactSecrets:  true,
		SecretPatterns: artifacts.DefaultSecretPatterns(),
	}
}

// Validate fails fast on misconfiguration.
func (c QueueConfig) Validate() error {
	if c.InlineMaxBytes <= 0 {
		return fmt.Errorf("inline_max_bytes must be > 0, got %d", c.InlineMaxBytes)
	}
	return nil
}

// OutputQueue is the policy layer in front of an artifacts.Store.
type OutputQueue struct {
	config  QueueConfig
	store   *artifacts.Store
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures an OutputQueue.
type Option func(*OutputQueue)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(q *OutputQueue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(q *OutputQueue) { q.metrics = collector }
}

// NewOutputQueue creates a queue in front of store. The store should have
// been built with a redactor matching config.SecretPatterns when
// config.RedactSecrets is set (the root contextcore package wires this).
func NewOutputQueue(config QueueConfig, store *artifacts.Store, opts ...Option) (*OutputQueue, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}

	q := &OutputQueue{
		config: config,
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With(zap.String("component", "output_queue"))
	return q, nil
}

// ShouldQueue reports whether content's serialized size exceeds the inline
// threshold. Always false when the queue is disabled.
func (q *OutputQueue) ShouldQueue(content any) bool {
	if !q.config.Enabled {
		return false
	}
	size, err := artifacts.SerializedSize(content)
	if err != nil {
		return false
	}
	return size > q.config.InlineMaxBytes
}

// Process returns content unchanged when it fits inline (zero-copy
// passthrough, no store write), or offloads it and returns the resulting
// *artifacts.Ref. Callers substitute ref.ToInline() into the message
// stream in place of the raw content.
func (q *OutputQueue) Process(ctx context.Context, content any, meta artifacts.Metadata) (any, error) {
	if !q.ShouldQueue(content) {
		q.metrics.OutputInlined()
		return content, nil
	}

	ref, err := q.store.Store(ctx, content, meta)
	if err != nil {
		return nil, fmt.Errorf("offload output: %w", err)
	}

	q.metrics.OutputQueued()
	q.logger.Debug("output offloaded",
		zap.String("artifact_id", ref.ArtifactID),
		zap.Int64("size_bytes", ref.SizeBytes),
		zap.String("tool", meta.ToolName))
	return ref, nil
}
