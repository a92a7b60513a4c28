package points

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Award is one applied point award. The unique transaction hash index makes
// awards idempotent under job redelivery.
type Award struct {
	ID        snowflake.ID `gorm:"column:id;primaryKey;autoIncrement:false"`
	TxHash    string       `gorm:"column:tx_hash;uniqueIndex;not null"`
	Address   string       `gorm:"column:address;index;not null"`
	EventName string       `gorm:"column:event_name"`
	Points    int64        `gorm:"column:points;not null"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (Award) TableName() string {
	return "point_awards"
}

// Balance is the running point total per actor address.
type Balance struct {
	Address   string    `gorm:"column:address;primaryKey"`
	Points    int64     `gorm:"column:points;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Balance) TableName() string {
	return "balances"
}
