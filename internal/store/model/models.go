package model

import (
	"time"

	"gorm.io/datatypes"
)

// StrategyCheckpointModel 记录每个交易对当前绑定的策略。
type StrategyCheckpointModel struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	Pair      string         `gorm:"column:pair;uniqueIndex"`
	Strategy  string         `gorm:"column:strategy"`
	Params    datatypes.JSON `gorm:"column:params"`
	Status    string         `gorm:"column:status"` // ACTIVE | STOPPED
	StartedAt time.Time      `gorm:"column:started_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (StrategyCheckpointModel) TableName() string { return "strategy_checkpoints" }

// ExecutionLogModel 记录每个决策条目的执行结果，同时作为状态接口的应答体。
type ExecutionLogModel struct {
	ID        int64          `gorm:"column:id;primaryKey" json:"id"`
	BatchID   string         `gorm:"column:batch_id;index" json:"batch_id"`
	EntryIdx  int            `gorm:"column:entry_idx" json:"entry_idx"`
	Asset     string         `gorm:"column:asset" json:"asset"`
	Action    string         `gorm:"column:action" json:"action"`
	Accepted  bool           `gorm:"column:accepted" json:"accepted"`
	Reason    string         `gorm:"column:reason" json:"reason,omitempty"`
	OrderID   string         `gorm:"column:order_id" json:"order_id,omitempty"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ExecutionLogModel) TableName() string { return "execution_logs" }

// DecisionRecordModel 保存一次完整的模型应答，便于回溯。
type DecisionRecordModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	BatchID   string    `gorm:"column:batch_id;uniqueIndex"`
	RawReply  string    `gorm:"column:raw_reply"`
	Entries   int       `gorm:"column:entries"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (DecisionRecordModel) TableName() string { return "decision_records" }

// NewsDigestModel 保存新闻检索结果摘要。
type NewsDigestModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Content   string    `gorm:"column:content"`
	Source    string    `gorm:"column:source"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (NewsDigestModel) TableName() string { return "news_digests" }
