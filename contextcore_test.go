package contextcore

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MervinPraison/contextcore/artifacts"
	"github.com/MervinPraison/contextcore/config"
	"github.com/MervinPraison/contextcore/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Artifacts.BasePath = t.TempDir()
	return cfg
}

func TestNewWiresAllSubsystems(t *testing.T) {
	core, err := New(WithConfig(testConfig(t)))
	require.NoError(t, err)

	assert.NotNil(t, core.Store)
	assert.NotNil(t, core.Artifacts)
	assert.NotNil(t, core.Queue)
	assert.NotNil(t, core.Counter)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.DefaultBudget.HistoryRatio = 2.0

	_, err := New(WithConfig(cfg))
	assert.Error(t, err)
}

func TestEndToEndToolOutputFlow(t *testing.T) {
	cfg := testConfig(t)
	cfg.Queue.InlineMaxBytes = 256
	core, err := New(WithConfig(cfg))
	require.NoError(t, err)

	ctx := context.Background()

	// 小输出直接内联进对话
	small, err := core.Queue.Process(ctx, "ok", artifacts.Metadata{AgentID: "researcher"})
	require.NoError(t, err)
	assert.Equal(t, "ok", small)

	// 大输出落盘, 对话里只保留引用行
	big := strings.Repeat("result line\n", 100)
	processed, err := core.Queue.Process(ctx, big, artifacts.Metadata{
		AgentID: "researcher", ToolName: "web_search",
	})
	require.NoError(t, err)
	ref, ok := processed.(*artifacts.Ref)
	require.True(t, ok)

	mutator := core.Store.GetMutator("researcher")
	mutator.Append(types.NewToolMessage("call-1", "web_search", ref.ToInline()))
	require.NoError(t, mutator.Commit())

	view := core.Store.GetView("researcher")
	messages := view.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Content, "[Artifact: ")
	assert.Less(t, len(messages[0].Content), 256)

	// 引用可以按需钻取原始内容
	head, err := core.Artifacts.Head(ctx, ref, 3)
	require.NoError(t, err)
	assert.Equal(t, "result line\nresult line\nresult line", head)
}

func TestMetricsEnabledUsesRegisterer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true

	registry := prometheus.NewRegistry()
	core, err := New(WithConfig(cfg), WithMetricsRegisterer(registry))
	require.NoError(t, err)

	mutator := core.Store.GetMutator("agent")
	mutator.Append(types.NewUserMessage("hi"))
	require.NoError(t, mutator.Commit())

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "contextcore_context_commits_total")
}

func TestCustomTokenCounterOverride(t *testing.T) {
	counter := types.NewEstimateTokenizer()
	core, err := New(WithConfig(testConfig(t)), WithTokenCounter(counter))
	require.NoError(t, err)
	assert.Equal(t, counter.CountTokens("hello world"), core.Counter.CountTokens("hello world"))
}
