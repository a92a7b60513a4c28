package transaction

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"arkada-rewards/pkg/config"
	"arkada-rewards/services/onchain"
)

// recordParallelism bounds the fan-out of conditional inserts within a batch.
const recordParallelism = 8

type Service struct {
	db      *gorm.DB
	chainID int64
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		chainID: p.Config.Chain.ID,
	}
}

// RecordNew records each event's transaction hash and returns the subset that
// were newly recorded, in input order. Recording is a single conditional
// insert; a duplicate key is the expected signal that the transaction was
// already processed, not an error. A storage failure on one event excludes
// only that event.
func (s *Service) RecordNew(ctx context.Context, events []onchain.Event) []onchain.Event {
	recorded := make([]bool, len(events))

	var g errgroup.Group
	g.SetLimit(recordParallelism)

	for i, event := range events {
		g.Go(func() error {
			args, err := event.ArgsJSON()
			if err != nil {
				zap.L().Warn("failed to serialize event args",
					zap.String("tx_hash", event.TxHash),
					zap.Error(err),
				)
				return nil
			}

			res := s.db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&Record{
					Hash:        event.TxHash,
					EventName:   event.Name,
					BlockNumber: event.BlockNumber,
					Args:        args,
					ChainID:     s.chainID,
				})
			if res.Error != nil {
				zap.L().Warn("failed to record transaction",
					zap.String("tx_hash", event.TxHash),
					zap.Error(res.Error),
				)
				return nil
			}
			if res.RowsAffected == 0 {
				zap.L().Debug("transaction already recorded", zap.String("tx_hash", event.TxHash))
				return nil
			}

			recorded[i] = true
			return nil
		})
	}

	// Errors are handled per event above; the group only joins the fan-out.
	_ = g.Wait()

	out := make([]onchain.Event, 0, len(events))
	for i, event := range events {
		if recorded[i] {
			out = append(out, event)
		}
	}
	return out
}

// PurgeOlderThan deletes transaction records past the retention window.
func (s *Service) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&Record{})
	return res.RowsAffected, res.Error
}
