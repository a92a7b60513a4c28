package points

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"arkada-rewards/pkg/config"
	"arkada-rewards/services/onchain"
)

// applyParallelism bounds the fan-out of award applications within a batch.
const applyParallelism = 8

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	ledger    Ledger
	streakCap int64
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Ledger Ledger
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		ledger:    p.Ledger,
		streakCap: p.Config.Points.StreakCap,
	}
}

// Apply awards points for each event independently and concurrently. Failures
// are collected per event without cancelling siblings; if any event fails the
// returned error signals job-level failure so the queue can retry the batch.
// Already-applied awards stand across retries: the unique tx_hash index on
// awards makes reapplication a no-op.
func (s *Service) Apply(ctx context.Context, events []onchain.Event) error {
	errs := make([]error, len(events))

	var g errgroup.Group
	g.SetLimit(applyParallelism)

	for i, event := range events {
		g.Go(func() error {
			if err := s.applyOne(ctx, event); err != nil {
				zap.L().Error("failed to apply award",
					zap.String("tx_hash", event.TxHash),
					zap.String("event", event.Name),
					zap.Error(err),
				)
				errs[i] = fmt.Errorf("award %s: %w", event.TxHash, err)
			}
			return nil
		})
	}

	// Per-event outcomes land in errs; the group only joins the fan-out.
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d awards failed: %w", failed, len(events), errors.Join(errs...))
	}
	return nil
}

func (s *Service) applyOne(ctx context.Context, event onchain.Event) error {
	data, ok := event.Data.(onchain.CheckInData)
	if !ok {
		// Only check-ins carry a reward; other known events are recorded for
		// the audit trail and skipped here.
		zap.L().Debug("event carries no award", zap.String("event", event.Name), zap.String("tx_hash", event.TxHash))
		return nil
	}

	pts := s.pointsFor(data.Streak)

	// The award row and its balance credit commit together; a redelivered job
	// hits the unique tx_hash index and does neither again.
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Award{
				ID:        s.node.Generate(),
				TxHash:    event.TxHash,
				Address:   data.User,
				EventName: event.Name,
				Points:    pts,
			})
		if res.Error != nil {
			return fmt.Errorf("insert award: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			zap.L().Debug("award already applied", zap.String("tx_hash", event.TxHash))
			return nil
		}

		if err := s.ledger.Credit(ctx, tx, data.User, pts); err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	zap.L().Info("awarded streak points",
		zap.String("address", data.User),
		zap.Int64("points", pts),
		zap.String("tx_hash", event.TxHash),
	)
	return nil
}

// pointsFor caps the on-chain streak counter at the configured maximum.
func (s *Service) pointsFor(streak *big.Int) int64 {
	if streak == nil {
		return 0
	}
	if streak.Cmp(big.NewInt(s.streakCap)) > 0 {
		return s.streakCap
	}
	return streak.Int64()
}
