package artifacts

import (
	"fmt"
	"time"
)

// Ref describes an offloaded payload. Refs are created by Store.Store and
// immutable thereafter except for deletion of the underlying artifact.
type Ref struct {
	ArtifactID string    `json:"artifact_id"`
	Path       string    `json:"path"` // store-relative locator
	Summary    string    `json:"summary,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	MimeType   string    `json:"mime_type"`
	Checksum   string    `json:"checksum"` // SHA-256 of the stored (redacted) bytes
	AgentID    string    `json:"agent_id,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Metadata carries caller-supplied context recorded on the Ref at write time.
type Metadata struct {
	Summary  string `json:"summary,omitempty"`
	AgentID  string `json:"agent_id,omitempty"`
	RunID    string `json:"run_id,omitempty"`
	ToolName string `json:"tool_name,omitempty"`
}

// ToInline produces the compact textual stand-in inserted into a message
// stream in place of the real payload. The format is a stable single line
// so later turns can locate the artifact by path.
func (r *Ref) ToInline() string {
	summary := r.Summary
	if summary == "" {
		summary = "stored output"
	}
	return fmt.Sprintf("[Artifact: %s | %d bytes | %s] %s (inspect with head/tail/grep/chunk)",
		r.Path, r.SizeBytes, r.MimeType, summary)
}
