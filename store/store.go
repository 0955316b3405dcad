package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/MervinPraison/contextcore/budget"
	"github.com/MervinPraison/contextcore/internal/metrics"
	"github.com/MervinPraison/contextcore/types"
)

// ContextStore is the process-wide, per-agent ordered message log with
// mutation staging and token-aware read views. Construct one explicitly and
// pass it to agents/workflows; per-agent-id namespacing is the only
// isolation boundary between callers.
type ContextStore struct {
	mu      sync.RWMutex
	logs    map[string][]record
	budgets map[string]budget.AgentBudget
	views   map[string]*ContextView

	defaultBudget budget.AgentBudget
	counter       types.TokenCounter
	logger        *zap.Logger
	metrics       *metrics.Collector
}

// Option configures a ContextStore.
type Option func(*ContextStore)

// WithTokenCounter sets the token counter used by all budget decisions.
func WithTokenCounter(counter types.TokenCounter) Option {
	return func(s *ContextStore) {
		if counter != nil {
			s.counter = counter
		}
	}
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *ContextStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultBudget sets the budget applied to agents that have not been
// given one via SetAgentBudget.
func WithDefaultBudget(b budget.AgentBudget) Option {
	return func(s *ContextStore) {
		s.defaultBudget = b
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *ContextStore) {
		s.metrics = collector
	}
}

// NewContextStore creates an empty store. The token counter defaults to
// types.EstimateTokenizer and the logger to zap.NewNop().
func NewContextStore(opts ...Option) *ContextStore {
	s := &ContextStore{
		logs:          make(map[string][]record),
		budgets:       make(map[string]budget.AgentBudget),
		views:         make(map[string]*ContextView),
		defaultBudget: budget.DefaultAgentBudget(),
		counter:       types.NewEstimateTokenizer(),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "context_store"))
	return s
}

// GetView returns the read-only view for the agent. The same agent id
// always yields the same view instance, so callers may compare views by
// identity and share them freely across goroutines.
func (s *ContextStore) GetView(agentID string) *ContextView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[agentID]; ok {
		return v
	}
	v := &ContextView{store: s, agentID: agentID}
	s.views[agentID] = v
	return v
}

// GetMutator returns a fresh mutator bound to the agent. A mutator's
// pending buffer belongs to the goroutine that created it; do not hold
// concurrently pending batches for the same agent id.
func (s *ContextStore) GetMutator(agentID string) *ContextMutator {
	return &ContextMutator{store: s, agentID: agentID}
}

// SetAgentBudget replaces the stored budget for the agent. The budget is
// validated so misconfiguration fails here rather than surfacing as odd
// window sizes later.
func (s *ContextStore) SetAgentBudget(agentID string, b budget.AgentBudget) error {
	if err := b.Validate(); err != nil {
		return types.NewErrorf(types.ErrInvalidConfig, "budget for agent %s", agentID).WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[agentID] = b

	s.logger.Debug("agent budget set",
		zap.String("agent_id", agentID),
		zap.Int("max_tokens", b.MaxTokens),
		zap.Int("history_budget", b.HistoryBudget()))
	return nil
}

// budgetFor returns the agent's budget, falling back to the default.
// Caller must hold at least a read lock.
func (s *ContextStore) budgetFor(agentID string) budget.AgentBudget {
	if b, ok := s.budgets[agentID]; ok {
		return b
	}
	return s.defaultBudget
}

// messageTokens estimates tokens for a single message, including a small
// per-message overhead the wire format adds around each entry.
func (s *ContextStore) messageTokens(msg types.Message) int {
	tokens := s.counter.CountTokens(msg.Content)
	if msg.Name != "" {
		tokens += s.counter.CountTokens(msg.Name)
	}
	for _, tc := range msg.ToolCalls {
		tokens += s.counter.CountTokens(tc.Name)
		tokens += len(tc.Arguments) / 4
	}
	return tokens + 4
}

// Clear removes the committed log and budget for a single agent.
func (s *ContextStore) Clear(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, agentID)
	delete(s.budgets, agentID)
}

// Reset drops all committed state for all agents. Cached views stay valid
// and observe empty logs afterwards.
func (s *ContextStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = make(map[string][]record)
	s.budgets = make(map[string]budget.AgentBudget)
}

// StoreStats aggregates diagnostics across all agents.
type StoreStats struct {
	AgentCount    int `json:"agent_count"`
	TotalMessages int `json:"total_messages"`
	TotalTokens   int `json:"total_tokens"`
	Superseded    int `json:"superseded"`
}

// Stats returns aggregate diagnostics for the whole store.
func (s *ContextStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{AgentCount: len(s.logs)}
	for _, log := range s.logs {
		stats.TotalMessages += len(log)
		for _, rec := range log {
			stats.TotalTokens += s.messageTokens(rec.Message)
			if rec.superseded() {
				stats.Superseded++
			}
		}
	}
	return stats
}
