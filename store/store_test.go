package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MervinPraison/contextcore/budget"
	"github.com/MervinPraison/contextcore/types"
)

// fixedCounter makes token math trivially predictable in tests.
type fixedCounter struct{}

func (fixedCounter) CountTokens(text string) int { return len(text) / 4 }

func newTestStore() *ContextStore {
	return NewContextStore(WithTokenCounter(fixedCounter{}))
}

func appendCommitted(t *testing.T, s *ContextStore, agentID string, msgs ...types.Message) {
	t.Helper()
	m := s.GetMutator(agentID)
	for _, msg := range msgs {
		m.Append(msg)
	}
	require.NoError(t, m.Commit())
}

func TestContextStore_AppendCommitVisibility(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	m := s.GetMutator("a1")
	m.Append(types.NewUserMessage("hello"))

	// Staged but uncommitted: invisible to every view.
	assert.Empty(t, s.GetView("a1").Messages())

	require.NoError(t, m.Commit())

	got := s.GetView("a1").Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Content)
	assert.Equal(t, types.RoleUser, got[0].Role)
}

func TestContextStore_ViewIdentityCaching(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	v1 := s.GetView("a1")
	v2 := s.GetView("a1")
	v3 := s.GetView("a2")

	assert.Same(t, v1, v2)
	assert.NotSame(t, v1, v3)
}

func TestContextStore_UnknownAgentIsEmptyHistory(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	v := s.GetView("never-seen")
	assert.Empty(t, v.Messages())
	assert.Empty(t, v.EffectiveMessages())
	assert.Zero(t, v.TokenCount())
}

func TestContextStore_NamespaceIsolation(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	// Two workers, five messages each (scenario: parallel-loop isolation).
	for i := 0; i < 5; i++ {
		appendCommitted(t, s, "a1", types.NewUserMessage(fmt.Sprintf("a1-msg-%d", i)))
		appendCommitted(t, s, "a2", types.NewUserMessage(fmt.Sprintf("a2-msg-%d", i)))
	}

	a1 := s.GetView("a1").Messages()
	require.Len(t, a1, 5)
	for _, msg := range a1 {
		assert.NotContains(t, msg.Content, "a2")
	}
	assert.Len(t, s.GetView("a2").Messages(), 5)
}

func TestContextStore_SetAgentBudget(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	b := budget.AgentBudget{MaxTokens: 1000, OutputReserve: 200, HistoryRatio: 0.6, CompactThreshold: 0.8}
	require.NoError(t, s.SetAgentBudget("a1", b))
	assert.Equal(t, 480, s.GetView("a1").Budget().HistoryBudget())

	err := s.SetAgentBudget("a1", budget.AgentBudget{MaxTokens: -1})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfig))
	// Failed replacement leaves the previous budget in place.
	assert.Equal(t, 480, s.GetView("a1").Budget().HistoryBudget())
}

func TestContextStore_Stats(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	appendCommitted(t, s, "a1",
		types.NewUserMessage("aaaa"),
		types.NewAssistantMessage("bbbbbbbb"))
	appendCommitted(t, s, "a2", types.NewUserMessage("cccc"))

	m := s.GetMutator("a1")
	require.NoError(t, m.TagForCondensation([]int{0}, "s1"))
	require.NoError(t, m.Commit())

	stats := s.Stats()
	assert.Equal(t, 2, stats.AgentCount)
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, 1, stats.Superseded)
	// 1 + 2 + 1 content tokens plus 4 overhead each.
	assert.Equal(t, 16, stats.TotalTokens)
}

func TestContextStore_ClearAndReset(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	appendCommitted(t, s, "a1", types.NewUserMessage("x"))
	appendCommitted(t, s, "a2", types.NewUserMessage("y"))

	v1 := s.GetView("a1")
	s.Clear("a1")
	assert.Empty(t, v1.Messages())
	assert.Len(t, s.GetView("a2").Messages(), 1)

	s.Reset()
	assert.Empty(t, s.GetView("a2").Messages())
	assert.Zero(t, s.Stats().AgentCount)

	// Cached views survive a reset and observe fresh state.
	appendCommitted(t, s, "a1", types.NewUserMessage("again"))
	assert.Len(t, v1.Messages(), 1)
}

func TestContextStore_ConcurrentCommits(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			agentID := fmt.Sprintf("worker-%d", w)
			for i := 0; i < perWorker; i++ {
				m := s.GetMutator(agentID)
				m.Append(types.NewUserMessage(fmt.Sprintf("%s-msg-%d", agentID, i)))
				assert.NoError(t, m.Commit())
			}
		}(w)
	}
	wg.Wait()

	stats := s.Stats()
	assert.Equal(t, workers, stats.AgentCount)
	assert.Equal(t, workers*perWorker, stats.TotalMessages)
	for w := 0; w < workers; w++ {
		agentID := fmt.Sprintf("worker-%d", w)
		msgs := s.GetView(agentID).Messages()
		require.Len(t, msgs, perWorker)
		for _, msg := range msgs {
			assert.Contains(t, msg.Content, agentID)
		}
	}
}

func TestContextStore_ConcurrentCommitsSameAgentSerialize(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	// Each mutator commits immediately after staging a single message, so
	// batches never overlap and every append must survive.
	const goroutines = 10
	const perGoroutine = 20

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				m := s.GetMutator("shared")
				m.Append(types.NewUserMessage("m"))
				assert.NoError(t, m.Commit())
			}
		}()
	}
	wg.Wait()

	assert.Len(t, s.GetView("shared").Messages(), goroutines*perGoroutine)
}
