package queue

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MervinPraison/contextcore/artifacts"
)

func newTestQueue(t *testing.T, config QueueConfig) (*OutputQueue, *artifacts.Store) {
	t.Helper()
	var opts []artifacts.StoreOption
	if config.RedactSecrets {
		opts = append(opts, artifacts.WithRedactor(artifacts.NewRedactor(config.SecretPatterns, nil)))
	}
	store, err := artifacts.NewStore(t.TempDir(), opts...)
	require.NoError(t, err)
	q, err := NewOutputQueue(config, store)
	require.NoError(t, err)
	return q, store
}

func TestOutputQueue_ThresholdBoundary(t *testing.T) {
	t.Parallel()
	config := DefaultQueueConfig()
	config.InlineMaxBytes = 1024
	q, _ := newTestQueue(t, config)

	// Exactly the threshold stays inline; one byte over is queued.
	assert.False(t, q.ShouldQueue(strings.Repeat("x", 1024)))
	assert.True(t, q.ShouldQueue(strings.Repeat("x", 1025)))
}

func TestOutputQueue_ProcessOffloadsLargeContent(t *testing.T) {
	t.Parallel()
	config := DefaultQueueConfig()
	config.InlineMaxBytes = 1024
	q, store := newTestQueue(t, config)
	ctx := context.Background()

	big := strings.Repeat("x", 2000)
	out, err := q.Process(ctx, big, artifacts.Metadata{Summary: "big", RunID: "r1"})
	require.NoError(t, err)

	ref, ok := out.(*artifacts.Ref)
	require.True(t, ok, "large content must come back as a *artifacts.Ref")
	assert.Equal(t, int64(2000), ref.SizeBytes)

	// The payload is retrievable through the store.
	loaded, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, big, loaded)
}

func TestOutputQueue_ProcessPassesSmallContentThrough(t *testing.T) {
	t.Parallel()
	config := DefaultQueueConfig()
	config.InlineMaxBytes = 1024
	q, store := newTestQueue(t, config)
	ctx := context.Background()

	out, err := q.Process(ctx, "short", artifacts.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "short", out)

	// Passthrough writes nothing.
	refs, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestOutputQueue_DisabledIsAlwaysPassthrough(t *testing.T) {
	t.Parallel()
	config := DefaultQueueConfig()
	config.Enabled = false
	config.InlineMaxBytes = 8
	q, store := newTestQueue(t, config)
	ctx := context.Background()

	big := strings.Repeat("x", 100000)
	assert.False(t, q.ShouldQueue(big))

	out, err := q.Process(ctx, big, artifacts.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, big, out)

	refs, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestOutputQueue_StructuredContentSize(t *testing.T) {
	t.Parallel()
	config := DefaultQueueConfig()
	config.InlineMaxBytes = 64
	q, _ := newTestQueue(t, config)
	ctx := context.Background()

	small := map[string]any{"ok": true}
	out, err := q.Process(ctx, small, artifacts.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, small, out)

	rows := make([]string, 50)
	for i := range rows {
		rows[i] = "row-content-padding"
	}
	out, err = q.Process(ctx, rows, artifacts.Metadata{Summary: "rows"})
	require.NoError(t, err)
	ref, ok := out.(*artifacts.Ref)
	require.True(t, ok)
	assert.Equal(t, "application/json", ref.MimeType)
}

func TestOutputQueue_RedactsOnOffload(t *testing.T) {
	t.Parallel()
	config := DefaultQueueConfig()
	config.InlineMaxBytes = 16
	q, store := newTestQueue(t, config)
	ctx := context.Background()

	leaky := `{"password":"secret123","data":"` + strings.Repeat("x", 100) + `"}`
	out, err := q.Process(ctx, leaky, artifacts.Metadata{})
	require.NoError(t, err)
	ref, ok := out.(*artifacts.Ref)
	require.True(t, ok)

	loaded, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.NotContains(t, loaded.(string), "secret123")
	assert.Contains(t, loaded.(string), artifacts.RedactedMarker)
}

func TestNewOutputQueue_Validation(t *testing.T) {
	t.Parallel()

	store, err := artifacts.NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = NewOutputQueue(QueueConfig{Enabled: true, InlineMaxBytes: 0}, store)
	assert.Error(t, err)

	_, err = NewOutputQueue(DefaultQueueConfig(), nil)
	assert.Error(t, err)
}
