package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MervinPraison/contextcore/budget"
	"github.com/MervinPraison/contextcore/types"
)

func asJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	appendCommitted(t, s, "a1",
		types.NewUserMessage("m0"),
		types.NewAssistantMessage("m1"),
		types.NewUserMessage("m2"))
	appendCommitted(t, s, "a2", types.NewToolMessage("tc1", "search", "result"))

	m := s.GetMutator("a1")
	require.NoError(t, m.TagForCondensation([]int{0, 1}, "s1"))
	require.NoError(t, m.InsertSummary("summary", "s1", 0))
	require.NoError(t, m.Commit())

	require.NoError(t, s.SetAgentBudget("a1", budget.AgentBudget{
		MaxTokens: 1000, OutputReserve: 200, HistoryRatio: 0.6,
	}))

	blob, err := s.Snapshot()
	require.NoError(t, err)

	fresh := newTestStore()
	require.NoError(t, fresh.Restore(blob))

	// Full logs match, including ordering around the inserted summary.
	// Compare through JSON: in-memory timestamps carry a monotonic clock
	// reading that never survives serialization.
	assert.Equal(t, asJSON(t, s.GetView("a1").Messages()), asJSON(t, fresh.GetView("a1").Messages()))
	assert.Equal(t, asJSON(t, s.GetView("a2").Messages()), asJSON(t, fresh.GetView("a2").Messages()))

	// Tags survive the round trip: effective views agree too.
	assert.Equal(t, asJSON(t, s.GetView("a1").EffectiveMessages()), asJSON(t, fresh.GetView("a1").EffectiveMessages()))

	// Budgets are part of the snapshot.
	assert.Equal(t, 480, fresh.GetView("a1").Budget().HistoryBudget())
}

func TestSnapshot_RestoreReplacesState(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	appendCommitted(t, s, "a1", types.NewUserMessage("original"))

	blob, err := s.Snapshot()
	require.NoError(t, err)

	appendCommitted(t, s, "a1", types.NewUserMessage("extra"))
	appendCommitted(t, s, "a9", types.NewUserMessage("stray"))

	require.NoError(t, s.Restore(blob))

	got := s.GetView("a1").Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Content)
	assert.Empty(t, s.GetView("a9").Messages())
}

func TestSnapshot_EmptyStore(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	blob, err := s.Snapshot()
	require.NoError(t, err)

	fresh := newTestStore()
	require.NoError(t, fresh.Restore(blob))
	assert.Zero(t, fresh.Stats().AgentCount)
}

func TestSnapshot_RestoreRejectsGarbage(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	err := s.Restore([]byte("{not json"))
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrSnapshotCorrupt))

	err = s.Restore([]byte(`{"version": 99, "logs": {}}`))
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrSnapshotCorrupt))
}
