package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// snapshotRow 是快照在 SQLite 中的存储形态。
type snapshotRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Label     string    `gorm:"size:255;index"`
	Blob      []byte    `gorm:"type:blob"`
	CreatedAt time.Time `gorm:"index"`
}

func (snapshotRow) TableName() string { return "context_snapshots" }

// SQLiteStore keeps snapshots in an embedded SQLite database. Use
// path ":memory:" for tests.
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database and migrates the schema.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}
	if err := db.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot schema: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		logger: logger.With(zap.String("component", "snapshot_sqlite_store")),
	}, nil
}

// Save upserts the snapshot by id.
func (s *SQLiteStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return fmt.Errorf("snapshot requires an id")
	}
	row := snapshotRow{
		ID:        snapshot.ID,
		Label:     snapshot.Label,
		Blob:      append([]byte(nil), snapshot.Blob...),
		CreatedAt: snapshot.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Debug("快照已保存",
		zap.String("snapshot_id", snapshot.ID),
		zap.Int("bytes", len(snapshot.Blob)))
	return nil
}

// Load returns one snapshot by id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	var row snapshotRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return rowToSnapshot(&row), nil
}

// LoadLatest returns the newest snapshot by CreatedAt.
func (s *SQLiteStore) LoadLatest(ctx context.Context) (*Snapshot, error) {
	var row snapshotRow
	err := s.db.WithContext(ctx).Order("created_at DESC, id ASC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	return rowToSnapshot(&row), nil
}

// List returns snapshots newest first, up to limit (0 = all).
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Snapshot, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []snapshotRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]*Snapshot, 0, len(rows))
	for i := range rows {
		out = append(out, rowToSnapshot(&rows[i]))
	}
	return out, nil
}

// Delete removes the snapshot. Deleting a missing id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&snapshotRow{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowToSnapshot(row *snapshotRow) *Snapshot {
	return &Snapshot{
		ID:        row.ID,
		Label:     row.Label,
		Blob:      append(json.RawMessage(nil), row.Blob...),
		CreatedAt: row.CreatedAt,
	}
}
