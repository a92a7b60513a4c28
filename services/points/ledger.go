package points

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger applies a point credit to an actor's balance. Credit runs inside the
// caller's transaction so an award row and its credit commit together.
type Ledger interface {
	Credit(ctx context.Context, tx *gorm.DB, address string, points int64) error
}

type gormLedger struct{}

func NewGormLedger() Ledger {
	return &gormLedger{}
}

// Credit bumps the actor's balance in a single upsert statement.
func (l *gormLedger) Credit(ctx context.Context, tx *gorm.DB, address string, points int64) error {
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":     gorm.Expr("balances.points + ?", points),
				"updated_at": time.Now(),
			}),
		}).
		Create(&Balance{
			Address: address,
			Points:  points,
		}).Error
}
