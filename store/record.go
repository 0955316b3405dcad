package store

import (
	"github.com/MervinPraison/contextcore/types"
)

// record is the internal representation of a committed log entry. It wraps
// the caller-visible message with the compaction bookkeeping the views
// filter on. Records are never physically removed except via Clear/Reset;
// condensation and truncation only tag them.
type record struct {
	Message types.Message `json:"message"`

	// CondenseParent is the id of the summary that subsumes this message.
	CondenseParent string `json:"condense_parent,omitempty"`

	// TruncationParent is the id of the truncation that subsumes this message.
	TruncationParent string `json:"truncation_parent,omitempty"`

	IsSummary bool   `json:"is_summary,omitempty"`
	SummaryID string `json:"summary_id,omitempty"`
	IsMasked  bool   `json:"is_masked,omitempty"`
}

// superseded reports whether the record has been replaced by a summary or
// truncation and must be excluded from effective views.
func (r record) superseded() bool {
	return r.CondenseParent != "" || r.TruncationParent != ""
}
