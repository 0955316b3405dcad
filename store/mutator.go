package store

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/MervinPraison/contextcore/types"
)

type opKind int

const (
	opAppend opKind = iota
	opTagCondense
	opTagTruncate
	opMask
	opInsertSummary
)

// stagedOp is a single pending mutation. Fields are used per kind.
type stagedOp struct {
	kind     opKind
	msg      types.Message // opAppend
	indices  []int         // opTagCondense, opTagTruncate
	id       string        // summary or truncation id
	index    int           // opMask
	preview  string        // opMask
	text     string        // opInsertSummary
	position int           // opInsertSummary
}

// ContextMutator stages mutations against one agent's committed log and
// applies them atomically on Commit. Staged operations are invisible to all
// views until committed and fully discarded on Rollback.
//
// A mutator is safe for use from a single goroutine; the staging buffer is
// guarded so accidental sharing does not corrupt it, but two mutators
// holding concurrently pending batches for the same agent id is a
// lost-update race by contract.
type ContextMutator struct {
	store   *ContextStore
	agentID string

	mu     sync.Mutex
	staged []stagedOp
}

// AgentID returns the agent id this mutator is bound to.
func (m *ContextMutator) AgentID() string {
	return m.agentID
}

// Pending returns the number of staged, uncommitted operations.
func (m *ContextMutator) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.staged)
}

// Append stages a new message at the end of the log.
func (m *ContextMutator) Append(msg types.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, stagedOp{kind: opAppend, msg: msg})
}

// committedLen returns the current committed log length for bounds checks.
func (m *ContextMutator) committedLen() int {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return len(m.store.logs[m.agentID])
}

// checkIndices validates positions against the committed log at call time.
func (m *ContextMutator) checkIndices(indices []int) error {
	n := m.committedLen()
	for _, i := range indices {
		if i < 0 || i >= n {
			return types.NewErrorf(types.ErrIndexOutOfRange,
				"index %d out of range for agent %s (log length %d)", i, m.agentID, n)
		}
	}
	return nil
}

// TagForCondensation stages condensation tags for the messages at the given
// committed-log positions. The originals are never deleted or altered;
// effective views exclude them once the tag is committed.
func (m *ContextMutator) TagForCondensation(indices []int, summaryID string) error {
	if summaryID == "" {
		return fmt.Errorf("summary id is required")
	}
	if err := m.checkIndices(indices); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, stagedOp{
		kind:    opTagCondense,
		indices: append([]int(nil), indices...),
		id:      summaryID,
	})
	return nil
}

// TagForTruncation stages truncation tags. Same semantics as condensation
// tagging, used when the original is superseded by a shorter replacement
// rather than a semantic summary.
func (m *ContextMutator) TagForTruncation(indices []int, truncationID string) error {
	if truncationID == "" {
		return fmt.Errorf("truncation id is required")
	}
	if err := m.checkIndices(indices); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, stagedOp{
		kind:    opTagTruncate,
		indices: append([]int(nil), indices...),
		id:      truncationID,
	})
	return nil
}

// MaskObservation stages a content rewrite for the message at index: the
// content is replaced by a short placeholder embedding preview, and the
// record is flagged as masked. Role and position are unchanged. Used to
// stop huge tool outputs from being re-sent verbatim every turn while
// keeping a human-legible trace.
func (m *ContextMutator) MaskObservation(index int, preview string) error {
	if err := m.checkIndices([]int{index}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, stagedOp{kind: opMask, index: index, preview: preview})
	return nil
}

// InsertSummary stages a summary message insertion at position in the
// committed log, shifting subsequent indices. position may equal the log
// length to append at the end.
func (m *ContextMutator) InsertSummary(text, summaryID string, position int) error {
	if summaryID == "" {
		return fmt.Errorf("summary id is required")
	}
	if n := m.committedLen(); position < 0 || position > n {
		return types.NewErrorf(types.ErrIndexOutOfRange,
			"insert position %d out of range for agent %s (log length %d)", position, m.agentID, n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, stagedOp{
		kind:     opInsertSummary,
		text:     text,
		id:       summaryID,
		position: position,
	})
	return nil
}

// Commit atomically applies all staged operations to the committed log in
// staging order. On success the staging buffer is cleared and a new batch
// may begin immediately. On failure (an index invalidated by a concurrent
// commit) nothing is applied and the buffer is left intact so the caller
// can Rollback or retry.
func (m *ContextMutator) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.staged) == 0 {
		return nil
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	// Apply against a copy so a failed batch never leaves the committed
	// log partially mutated.
	log := append([]record(nil), m.store.logs[m.agentID]...)
	appended := 0

	for _, op := range m.staged {
		switch op.kind {
		case opAppend:
			log = append(log, record{Message: op.msg})
			appended++

		case opTagCondense, opTagTruncate:
			for _, i := range op.indices {
				if i < 0 || i >= len(log) {
					return types.NewErrorf(types.ErrIndexOutOfRange,
						"commit: tag index %d out of range for agent %s (log length %d)", i, m.agentID, len(log))
				}
				if op.kind == opTagCondense {
					log[i].CondenseParent = op.id
				} else {
					log[i].TruncationParent = op.id
				}
			}

		case opMask:
			if op.index < 0 || op.index >= len(log) {
				return types.NewErrorf(types.ErrIndexOutOfRange,
					"commit: mask index %d out of range for agent %s (log length %d)", op.index, m.agentID, len(log))
			}
			rec := &log[op.index]
			rec.IsMasked = true
			rec.Message.Content = fmt.Sprintf("[Output masked: %d chars] %s",
				len(rec.Message.Content), op.preview)

		case opInsertSummary:
			if op.position < 0 || op.position > len(log) {
				return types.NewErrorf(types.ErrIndexOutOfRange,
					"commit: insert position %d out of range for agent %s (log length %d)", op.position, m.agentID, len(log))
			}
			summary := record{
				Message:   types.NewAssistantMessage(op.text),
				IsSummary: true,
				SummaryID: op.id,
			}
			log = append(log, record{})
			copy(log[op.position+1:], log[op.position:])
			log[op.position] = summary
		}
	}

	m.store.logs[m.agentID] = log
	count := len(m.staged)
	m.staged = nil

	m.store.metrics.CommitApplied(appended)
	m.store.logger.Debug("mutation batch committed",
		zap.String("agent_id", m.agentID),
		zap.Int("ops", count),
		zap.Int("log_length", len(log)))
	return nil
}

// Rollback discards all staged operations since the last commit. Committed
// state is unaffected.
func (m *ContextMutator) Rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.staged) == 0 {
		return
	}
	dropped := len(m.staged)
	m.staged = nil

	m.store.metrics.RollbackDiscarded()
	m.store.logger.Debug("mutation batch rolled back",
		zap.String("agent_id", m.agentID),
		zap.Int("ops", dropped))
}
