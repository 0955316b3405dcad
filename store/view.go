package store

import (
	"github.com/MervinPraison/contextcore/budget"
	"github.com/MervinPraison/contextcore/types"
)

// BudgetUnlimited is returned by BudgetRemaining when the agent's budget
// imposes no history ceiling.
const BudgetUnlimited = -1

// ContextView is the read-only facet of the store for one agent id. Views
// carry no state of their own and are freely shareable across goroutines;
// every read observes a consistent committed snapshot, never a partially
// applied commit.
type ContextView struct {
	store   *ContextStore
	agentID string
}

// AgentID returns the agent id this view is bound to.
func (v *ContextView) AgentID() string {
	return v.agentID
}

// Messages returns the full committed log with internal bookkeeping
// stripped. Superseded (condensed/truncated) originals are included; use
// EffectiveMessages for the LLM-ready window.
func (v *ContextView) Messages() []types.Message {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	log := v.store.logs[v.agentID]
	out := make([]types.Message, 0, len(log))
	for _, rec := range log {
		out = append(out, rec.Message)
	}
	return out
}

// MessagesWithin returns the suffix of the committed log whose cumulative
// token count does not exceed maxTokens, dropping the oldest messages
// first. maxTokens <= 0 returns the full log. The result is deterministic
// for a fixed committed log and limit.
func (v *ContextView) MessagesWithin(maxTokens int) []types.Message {
	if maxTokens <= 0 {
		return v.Messages()
	}

	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	log := v.store.logs[v.agentID]
	used := 0
	start := len(log)
	for i := len(log) - 1; i >= 0; i-- {
		cost := v.store.messageTokens(log[i].Message)
		if used+cost > maxTokens {
			break
		}
		used += cost
		start = i
	}

	out := make([]types.Message, 0, len(log)-start)
	for _, rec := range log[start:] {
		out = append(out, rec.Message)
	}
	return out
}

// EffectiveMessages returns the LLM-ready window: the committed log with
// bookkeeping stripped and every condensed or truncated original excluded.
// Replacement summaries are included in their inserted positions.
func (v *ContextView) EffectiveMessages() []types.Message {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	log := v.store.logs[v.agentID]
	out := make([]types.Message, 0, len(log))
	for _, rec := range log {
		if rec.superseded() {
			continue
		}
		out = append(out, rec.Message)
	}
	return out
}

// TokenCount returns the token count of the full committed log.
func (v *ContextView) TokenCount() int {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	total := 0
	for _, rec := range v.store.logs[v.agentID] {
		total += v.store.messageTokens(rec.Message)
	}
	return total
}

// Budget returns the agent's effective budget (the store default when none
// was set explicitly).
func (v *ContextView) Budget() budget.AgentBudget {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return v.store.budgetFor(v.agentID)
}

// BudgetRemaining returns the history budget minus the current token
// count, floored at zero. Returns BudgetUnlimited when the budget imposes
// no ceiling.
func (v *ContextView) BudgetRemaining() int {
	b := v.Budget()
	if b.IsUnlimited() {
		return BudgetUnlimited
	}
	remaining := b.HistoryBudget() - v.TokenCount()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Utilization returns the fraction of the history budget consumed, in
// [0, 1]. Returns 0.0 when the budget is unlimited.
func (v *ContextView) Utilization() float64 {
	b := v.Budget()
	hb := b.HistoryBudget()
	if b.IsUnlimited() || hb <= 0 {
		return 0.0
	}
	u := float64(v.TokenCount()) / float64(hb)
	if u > 1 {
		return 1
	}
	return u
}

// ShouldCompact reports whether utilization has crossed the budget's
// compaction threshold.
func (v *ContextView) ShouldCompact() bool {
	b := v.Budget()
	if b.IsUnlimited() {
		return false
	}
	return v.Utilization() >= b.CompactThreshold
}
