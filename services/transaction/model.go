package transaction

import (
	"time"

	"gorm.io/datatypes"
)

// Record is the durable idempotency marker for one observed on-chain
// transaction. At most one row per hash ever exists; the primary key is the
// enforcement mechanism.
type Record struct {
	Hash        string         `gorm:"column:hash;primaryKey"`
	EventName   string         `gorm:"column:event_name;not null"`
	BlockNumber uint64         `gorm:"column:block_number;not null"`
	Args        datatypes.JSON `gorm:"column:args"`
	ChainID     int64          `gorm:"column:chain_id;index"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime;index"`
}

func (Record) TableName() string {
	return "transactions"
}
