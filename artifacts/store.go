package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MervinPraison/contextcore/internal/metrics"
	"github.com/MervinPraison/contextcore/types"
)

// ErrNotFound marks a lookup for a missing or deleted artifact. It is
// distinct from I/O failures: a load that fails because the disk is
// unreadable does not match this sentinel.
var ErrNotFound = errors.New("artifact not found")

const (
	dataFileName  = "data"
	metaFileName  = "metadata.json"
	indexFileName = "index.json"

	mimeJSON = "application/json"
	mimeText = "text/plain"
)

// Store is a content-addressable file store for oversized payloads. Each
// artifact lives in its own directory under basePath (data + metadata.json)
// with a global index.json for enumeration. Store/Load/Delete touch disk
// and may block briefly; call them from a worker goroutine in async code.
type Store struct {
	basePath string
	mu       sync.RWMutex
	index    map[string]*Ref

	redactor *Redactor
	logger   *zap.Logger
	metrics  *metrics.Collector
	now      func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRedactor installs a secret redactor applied to every write.
func WithRedactor(r *Redactor) StoreOption {
	return func(s *Store) { s.redactor = r }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) StoreOption {
	return func(s *Store) { s.metrics = collector }
}

// WithClock overrides the timestamp source for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a file-backed artifact store rooted at basePath.
func NewStore(basePath string, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, types.NewErrorf(types.ErrArtifactIO, "create base path %s", basePath).WithCause(err)
	}

	s := &Store{
		basePath: basePath,
		index:    make(map[string]*Ref),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "artifact_store"))

	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

// serialize renders content to storable bytes. Structured data becomes
// JSON; strings and raw bytes are stored as UTF-8 text.
func serialize(content any) ([]byte, string, error) {
	switch c := content.(type) {
	case string:
		return []byte(c), mimeText, nil
	case []byte:
		return c, mimeText, nil
	case json.RawMessage:
		return c, mimeJSON, nil
	default:
		data, err := json.Marshal(c)
		if err != nil {
			return nil, "", fmt.Errorf("serialize content: %w", err)
		}
		return data, mimeJSON, nil
	}
}

// SerializedSize returns the byte size content would occupy when stored,
// before redaction. Used by the output queue's inline threshold check.
func SerializedSize(content any) (int, error) {
	data, _, err := serialize(content)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Store serializes content, applies secret redaction, persists the result
// and returns its Ref. Redaction is destructive by design: the checksum
// and stored bytes reflect the redacted form only.
func (s *Store) Store(ctx context.Context, content any, meta Metadata) (*Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, mimeType, err := serialize(content)
	if err != nil {
		return nil, err
	}

	data, redactions := s.redactor.Redact(data)
	s.metrics.RedactionsApplied(redactions)

	hash := sha256.Sum256(data)
	id := uuid.NewString()

	ref := &Ref{
		ArtifactID: id,
		Path:       filepath.Join(id, dataFileName),
		Summary:    meta.Summary,
		SizeBytes:  int64(len(data)),
		MimeType:   mimeType,
		Checksum:   hex.EncodeToString(hash[:]),
		AgentID:    meta.AgentID,
		RunID:      meta.RunID,
		ToolName:   meta.ToolName,
		CreatedAt:  s.now(),
	}

	artifactDir := filepath.Join(s.basePath, id)
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return nil, types.NewErrorf(types.ErrArtifactIO, "create artifact dir %s", id).WithCause(err)
	}
	if err := os.WriteFile(filepath.Join(artifactDir, dataFileName), data, 0o644); err != nil {
		return nil, types.NewErrorf(types.ErrArtifactIO, "write artifact %s", id).WithCause(err)
	}

	metaData, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifact metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(artifactDir, metaFileName), metaData, 0o644); err != nil {
		return nil, types.NewErrorf(types.ErrArtifactIO, "write artifact metadata %s", id).WithCause(err)
	}

	s.mu.Lock()
	s.index[id] = ref
	err = s.saveIndexLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.metrics.ArtifactStored(ref.SizeBytes)
	s.logger.Debug("artifact stored",
		zap.String("artifact_id", id),
		zap.Int64("size_bytes", ref.SizeBytes),
		zap.String("mime_type", mimeType),
		zap.Int("redactions", redactions))
	return ref, nil
}

// readData returns the stored bytes for ref, distinguishing a missing
// artifact (ErrNotFound) from an unreadable one.
func (s *Store) readData(ref *Ref) ([]byte, error) {
	if ref == nil {
		return nil, fmt.Errorf("nil artifact ref")
	}

	s.mu.RLock()
	_, known := s.index[ref.ArtifactID]
	s.mu.RUnlock()
	if !known {
		return nil, fmt.Errorf("artifact %s: %w", ref.ArtifactID, ErrNotFound)
	}

	data, err := os.ReadFile(filepath.Join(s.basePath, ref.Path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s: %w", ref.ArtifactID, ErrNotFound)
		}
		return nil, types.NewErrorf(types.ErrArtifactIO, "read artifact %s", ref.ArtifactID).WithCause(err)
	}
	return data, nil
}

// Load returns the stored content deserialized back to its original form:
// structured data stored as JSON comes back as the decoded value, anything
// else as raw text.
func (s *Store) Load(ctx context.Context, ref *Ref) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.readData(ref)
	if err != nil {
		return nil, err
	}

	if ref.MimeType == mimeJSON {
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, types.NewErrorf(types.ErrArtifactIO, "decode artifact %s", ref.ArtifactID).WithCause(err)
		}
		return decoded, nil
	}
	return string(data), nil
}

// lines splits stored content into lines without a trailing empty entry.
func (s *Store) lines(ref *Ref) ([]string, error) {
	data, err := s.readData(ref)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// Head returns the first n lines of the artifact's text content.
func (s *Store) Head(ctx context.Context, ref *Ref, n int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	all, err := s.lines(ref)
	if err != nil {
		return "", err
	}
	if n > len(all) {
		n = len(all)
	}
	if n <= 0 {
		return "", nil
	}
	return strings.Join(all[:n], "\n"), nil
}

// Tail returns the last n lines of the artifact's text content.
func (s *Store) Tail(ctx context.Context, ref *Ref, n int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	all, err := s.lines(ref)
	if err != nil {
		return "", err
	}
	if n > len(all) {
		n = len(all)
	}
	if n <= 0 {
		return "", nil
	}
	return strings.Join(all[len(all)-n:], "\n"), nil
}

// GrepMatch is one matching line, numbered from 1.
type GrepMatch struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
}

// Grep returns all lines matching pattern in ascending line-number order.
func (s *Store) Grep(ctx context.Context, ref *Ref, pattern string) ([]GrepMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile grep pattern: %w", err)
	}

	all, err := s.lines(ref)
	if err != nil {
		return nil, err
	}

	var matches []GrepMatch
	for i, line := range all {
		if re.MatchString(line) {
			matches = append(matches, GrepMatch{LineNumber: i + 1, Line: line})
		}
	}
	return matches, nil
}

// Chunk returns the half-open line range [startLine, endLine), numbered
// from 1 to match Grep output.
func (s *Store) Chunk(ctx context.Context, ref *Ref, startLine, endLine int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if startLine < 1 || endLine < startLine {
		return "", fmt.Errorf("invalid chunk range [%d, %d)", startLine, endLine)
	}

	all, err := s.lines(ref)
	if err != nil {
		return "", err
	}
	if startLine > len(all) {
		return "", nil
	}
	if endLine > len(all)+1 {
		endLine = len(all) + 1
	}
	return strings.Join(all[startLine-1:endLine-1], "\n"), nil
}

// Get resolves an artifact id back to its reference. The id is what
// Ref.ToInline embeds in the conversation, so this is the drill-down
// entry point when only the inline line survived.
func (s *Store) Get(ctx context.Context, artifactID string) (*Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ref, ok := s.index[artifactID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cloned := *ref
	return &cloned, nil
}

// List enumerates stored artifacts in creation order, optionally filtered
// by run id. Pass "" to list everything.
func (s *Store) List(ctx context.Context, runID string) ([]*Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	refs := make([]*Ref, 0, len(s.index))
	for _, ref := range s.index {
		if runID == "" || ref.RunID == runID {
			refs = append(refs, ref)
		}
	}
	s.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
			return refs[i].ArtifactID < refs[j].ArtifactID
		}
		return refs[i].CreatedAt.Before(refs[j].CreatedAt)
	})
	return refs, nil
}

// Delete removes the artifact and reports whether it existed.
func (s *Store) Delete(ctx context.Context, ref *Ref) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if ref == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[ref.ArtifactID]; !ok {
		return false, nil
	}
	if err := os.RemoveAll(filepath.Join(s.basePath, ref.ArtifactID)); err != nil {
		return false, types.NewErrorf(types.ErrArtifactIO, "delete artifact %s", ref.ArtifactID).WithCause(err)
	}
	delete(s.index, ref.ArtifactID)
	if err := s.saveIndexLocked(); err != nil {
		return false, err
	}

	s.metrics.ArtifactDeleted()
	s.logger.Debug("artifact deleted", zap.String("artifact_id", ref.ArtifactID))
	return true, nil
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.basePath, indexFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return types.NewError(types.ErrArtifactIO, "read artifact index").WithCause(err)
	}
	if err := json.Unmarshal(data, &s.index); err != nil {
		return types.NewError(types.ErrArtifactIO, "parse artifact index").WithCause(err)
	}
	return nil
}

func (s *Store) saveIndexLocked() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.basePath, indexFileName), data, 0o644); err != nil {
		return types.NewError(types.ErrArtifactIO, "write artifact index").WithCause(err)
	}
	return nil
}
