// Package budget provides the per-agent token budget model consumed by the
// context store when building LLM-ready message windows.
package budget

import (
	"fmt"
)

// Unlimited is the HistoryBudget sentinel returned when MaxTokens is 0.
const Unlimited = 0

// AgentBudget is an immutable per-agent token allowance. Replace it
// wholesale via ContextStore.SetAgentBudget rather than mutating fields.
type AgentBudget struct {
	// MaxTokens is the model context ceiling. 0 means unlimited.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// HistoryRatio is the fraction of the non-reserved budget allotted
	// to conversation history.
	HistoryRatio float64 `yaml:"history_ratio" json:"history_ratio"`

	// OutputReserve is the token count reserved for model output.
	OutputReserve int `yaml:"output_reserve" json:"output_reserve"`

	// CompactThreshold is the utilization fraction at which compaction
	// should trigger.
	CompactThreshold float64 `yaml:"compact_threshold" json:"compact_threshold"`
}

// DefaultAgentBudget returns sensible defaults: unlimited context with the
// standard ratios so setting MaxTokens alone yields a working budget.
func DefaultAgentBudget() AgentBudget {
	return AgentBudget{
		MaxTokens:        0,
		HistoryRatio:     0.6,
		OutputReserve:    8000,
		CompactThreshold: 0.8,
	}
}

// NewAgentBudget creates a validated budget with default ratios.
func NewAgentBudget(maxTokens int) (AgentBudget, error) {
	b := DefaultAgentBudget()
	b.MaxTokens = maxTokens
	if err := b.Validate(); err != nil {
		return AgentBudget{}, err
	}
	return b, nil
}

// Validate fails fast on misconfiguration instead of clamping silently.
func (b AgentBudget) Validate() error {
	if b.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0, got %d", b.MaxTokens)
	}
	if b.OutputReserve < 0 {
		return fmt.Errorf("output_reserve must be >= 0, got %d", b.OutputReserve)
	}
	if b.HistoryRatio < 0 || b.HistoryRatio > 1 {
		return fmt.Errorf("history_ratio must be in [0,1], got %g", b.HistoryRatio)
	}
	if b.CompactThreshold < 0 || b.CompactThreshold > 1 {
		return fmt.Errorf("compact_threshold must be in [0,1], got %g", b.CompactThreshold)
	}
	return nil
}

// IsUnlimited reports whether the budget imposes no history ceiling.
func (b AgentBudget) IsUnlimited() bool {
	return b.MaxTokens == 0
}

// HistoryBudget returns the token allowance for conversation history:
// (MaxTokens - OutputReserve) * HistoryRatio, floored at zero.
// Returns Unlimited (0) when MaxTokens is 0.
func (b AgentBudget) HistoryBudget() int {
	if b.IsUnlimited() {
		return Unlimited
	}
	usable := b.MaxTokens - b.OutputReserve
	if usable <= 0 {
		return 0
	}
	hb := int(float64(usable) * b.HistoryRatio)
	if hb < 0 {
		return 0
	}
	return hb
}

// CompactAt returns the token count at which compaction should trigger,
// or Unlimited when the budget is unlimited.
func (b AgentBudget) CompactAt() int {
	if b.IsUnlimited() {
		return Unlimited
	}
	return int(float64(b.HistoryBudget()) * b.CompactThreshold)
}
