package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// FileStore 将快照保存为目录下的 JSON 文件, 每个快照一个文件。
// 适合单机部署和调试场景。
type FileStore struct {
	dir    string
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With(zap.String("component", "snapshot_file_store")),
	}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save persists the snapshot as <dir>/<id>.json.
func (s *FileStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return fmt.Errorf("snapshot requires an id")
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 先写临时文件再改名, 避免写一半留下损坏的快照
	tmp := s.path(snapshot.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path(snapshot.ID)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.logger.Debug("快照已保存",
		zap.String("snapshot_id", snapshot.ID),
		zap.Int("bytes", len(snapshot.Blob)))
	return nil
}

// Load reads one snapshot by id.
func (s *FileStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

func (s *FileStore) read(id string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &snapshot, nil
}

// LoadLatest returns the newest snapshot by CreatedAt.
func (s *FileStore) LoadLatest(ctx context.Context) (*Snapshot, error) {
	all, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return all[0], nil
}

// List returns snapshots newest first.
func (s *FileStore) List(ctx context.Context, limit int) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var out []*Snapshot
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		snapshot, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.logger.Warn("跳过无法读取的快照文件", zap.String("file", name), zap.Error(err))
			continue
		}
		out = append(out, snapshot)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes the snapshot file. Deleting a missing id is not an error.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
