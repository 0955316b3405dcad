package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("contextcore", reg, nil)

	c.CommitApplied(3)
	c.CommitApplied(2)
	c.RollbackDiscarded()
	c.ArtifactStored(1024)
	c.OutputQueued()
	c.OutputInlined()
	c.RedactionsApplied(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.commitsTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.messagesAppended))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rollbacksTotal))
	assert.Equal(t, 1024.0, testutil.ToFloat64(c.artifactBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outputsQueued))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outputsInlined))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.redactionsApplied))
}

func TestCollector_NilSafe(t *testing.T) {
	t.Parallel()

	var c *Collector
	require.NotPanics(t, func() {
		c.CommitApplied(1)
		c.RollbackDiscarded()
		c.SnapshotTaken()
		c.SnapshotRestored()
		c.ArtifactStored(10)
		c.ArtifactDeleted()
		c.OutputQueued()
		c.OutputInlined()
		c.RedactionsApplied(1)
	})
}
