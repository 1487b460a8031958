package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"sibyl/internal/decision"
	"sibyl/internal/logger"
	"sibyl/internal/store/model"
	"sibyl/internal/strategy"
)

// Store is the sqlite persistence backend: strategy checkpoints, execution
// logs, raw decision records and news digests share one WAL database.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	// DriverName "sqlite" selects the cgo-free modernc driver; the _pragma
	// DSN options above are its syntax.
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

// NewFromDB wraps an existing gorm handle, used by tests.
func NewFromDB(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db 不能为空")
	}
	return newStore(db)
}

func newStore(db *gorm.DB) (*Store, error) {
	models := []interface{}{
		&model.StrategyCheckpointModel{},
		&model.ExecutionLogModel{},
		&model.DecisionRecordModel{},
		&model.NewsDigestModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveCheckpoint upserts the pair's strategy assignment.
func (s *Store) SaveCheckpoint(ctx context.Context, cp strategy.Checkpoint) error {
	params, err := json.Marshal(cp.Params)
	if err != nil {
		return fmt.Errorf("marshal checkpoint params failed: %w", err)
	}
	row := model.StrategyCheckpointModel{
		Pair:      cp.Pair,
		Strategy:  cp.Strategy,
		Params:    datatypes.JSON(params),
		Status:    cp.Status,
		StartedAt: cp.StartedAt,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "pair"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"strategy", "params", "status", "started_at", "updated_at",
			}),
		}).
		Create(&row).Error
}

// ActiveCheckpoints returns the assignments to resume after a restart.
func (s *Store) ActiveCheckpoints(ctx context.Context) ([]strategy.Checkpoint, error) {
	var rows []model.StrategyCheckpointModel
	if err := s.db.WithContext(ctx).
		Where("status = ?", "ACTIVE").
		Order("pair asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]strategy.Checkpoint, 0, len(rows))
	for _, row := range rows {
		cp := strategy.Checkpoint{
			Pair:      row.Pair,
			Strategy:  row.Strategy,
			Status:    row.Status,
			StartedAt: row.StartedAt,
		}
		if len(row.Params) > 0 {
			var params map[string]any
			if err := json.Unmarshal(row.Params, &params); err != nil {
				logger.Warnf("检查点参数解析失败 pair=%s: %v", row.Pair, err)
			} else {
				cp.Params = params
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// RecordExecution appends one entry result to the execution log. Failures
// only log; execution must not depend on the audit trail.
func (s *Store) RecordExecution(ctx context.Context, batchID string, entry decision.Entry, result decision.ExecutionResult) {
	row := model.ExecutionLogModel{
		BatchID:   batchID,
		EntryIdx:  result.Index,
		Asset:     result.Asset,
		Action:    string(result.Action),
		Accepted:  result.Accepted,
		Reason:    result.Reason,
		OrderID:   result.OrderID,
		CreatedAt: time.Now(),
	}
	if entry.Decision != nil {
		if payload, err := json.Marshal(entry.Decision); err == nil {
			row.Payload = datatypes.JSON(payload)
		}
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Errorf("写入执行日志失败: %v", err)
	}
}

// SaveDecisionRecord keeps the raw model reply for one batch. A batch is
// recorded at most once.
func (s *Store) SaveDecisionRecord(ctx context.Context, batchID, rawReply string, entries int) error {
	row := model.DecisionRecordModel{
		BatchID:   batchID,
		RawReply:  rawReply,
		Entries:   entries,
		CreatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

// SaveNewsDigest stores a news retrieval result.
func (s *Store) SaveNewsDigest(ctx context.Context, source, content string) error {
	return s.db.WithContext(ctx).Create(&model.NewsDigestModel{
		Content:   content,
		Source:    source,
		CreatedAt: time.Now(),
	}).Error
}

// LatestNewsDigest returns the most recent digest, or "" when none exists.
func (s *Store) LatestNewsDigest(ctx context.Context) (string, error) {
	var row model.NewsDigestModel
	err := s.db.WithContext(ctx).Order("created_at desc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Content, nil
}

// RecentExecutions returns the latest execution log rows for the status API.
func (s *Store) RecentExecutions(ctx context.Context, limit int) ([]model.ExecutionLogModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []model.ExecutionLogModel
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}
