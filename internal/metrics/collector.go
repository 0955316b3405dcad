// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector 指标收集器。所有方法对 nil 接收者安全，
// 未启用指标时上层代码无需判空。
type Collector struct {
	// 上下文存储指标
	commitsTotal     prometheus.Counter
	rollbacksTotal   prometheus.Counter
	messagesAppended prometheus.Counter
	snapshotsTotal   *prometheus.CounterVec

	// 产物指标
	artifactsStored  prometheus.Counter
	artifactBytes    prometheus.Counter
	artifactsDeleted prometheus.Counter

	// 溢出队列指标
	outputsQueued     prometheus.Counter
	outputsInlined    prometheus.Counter
	redactionsApplied prometheus.Counter

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到 registerer。
// registerer 为 nil 时使用默认注册表。
func NewCollector(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.commitsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "context_commits_total",
		Help:      "Total number of committed mutation batches",
	})
	c.rollbacksTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "context_rollbacks_total",
		Help:      "Total number of rolled back mutation batches",
	})
	c.messagesAppended = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "context_messages_appended_total",
		Help:      "Total number of messages appended to committed logs",
	})
	c.snapshotsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "context_snapshots_total",
		Help:      "Total number of snapshot and restore operations",
	}, []string{"op"})

	c.artifactsStored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artifacts_stored_total",
		Help:      "Total number of artifacts written to the store",
	})
	c.artifactBytes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artifact_bytes_total",
		Help:      "Total bytes written to the artifact store",
	})
	c.artifactsDeleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artifacts_deleted_total",
		Help:      "Total number of artifacts deleted",
	})

	c.outputsQueued = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outputs_queued_total",
		Help:      "Total number of outputs offloaded to the artifact store",
	})
	c.outputsInlined = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outputs_inlined_total",
		Help:      "Total number of outputs passed through inline",
	})
	c.redactionsApplied = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redactions_applied_total",
		Help:      "Total number of secret redactions applied on write",
	})

	return c
}

// CommitApplied 记录一次提交。
func (c *Collector) CommitApplied(messages int) {
	if c == nil {
		return
	}
	c.commitsTotal.Inc()
	c.messagesAppended.Add(float64(messages))
}

// RollbackDiscarded 记录一次回滚。
func (c *Collector) RollbackDiscarded() {
	if c == nil {
		return
	}
	c.rollbacksTotal.Inc()
}

// SnapshotTaken 记录一次快照导出。
func (c *Collector) SnapshotTaken() {
	if c == nil {
		return
	}
	c.snapshotsTotal.WithLabelValues("snapshot").Inc()
}

// SnapshotRestored 记录一次快照恢复。
func (c *Collector) SnapshotRestored() {
	if c == nil {
		return
	}
	c.snapshotsTotal.WithLabelValues("restore").Inc()
}

// ArtifactStored 记录一次产物写入。
func (c *Collector) ArtifactStored(bytes int64) {
	if c == nil {
		return
	}
	c.artifactsStored.Inc()
	c.artifactBytes.Add(float64(bytes))
}

// ArtifactDeleted 记录一次产物删除。
func (c *Collector) ArtifactDeleted() {
	if c == nil {
		return
	}
	c.artifactsDeleted.Inc()
}

// OutputQueued 记录一次输出溢出。
func (c *Collector) OutputQueued() {
	if c == nil {
		return
	}
	c.outputsQueued.Inc()
}

// OutputInlined 记录一次内联透传。
func (c *Collector) OutputInlined() {
	if c == nil {
		return
	}
	c.outputsInlined.Inc()
}

// RedactionsApplied 记录脱敏替换次数。
func (c *Collector) RedactionsApplied(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.redactionsApplied.Add(float64(n))
}
