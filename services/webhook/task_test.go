package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"arkada-rewards/services/onchain"
	"arkada-rewards/services/points"
	"arkada-rewards/services/testutil"
	"arkada-rewards/services/transaction"
)

const testContractAddr = "0x1111111111111111111111111111111111111111"

func checkInBlockLog(t *testing.T, txHash string, user common.Address, streak, timestamp int64) BlockLog {
	t.Helper()

	contractABI, err := onchain.StreakABI()
	require.NoError(t, err)

	data, err := contractABI.Events["CheckIn"].Inputs.NonIndexed().Pack(
		big.NewInt(streak),
		big.NewInt(timestamp),
	)
	require.NoError(t, err)

	var log BlockLog
	log.Transaction.Hash = txHash
	log.Topics = []string{
		contractABI.Events["CheckIn"].ID.Hex(),
		common.BytesToHash(common.LeftPadBytes(user.Bytes(), 32)).Hex(),
	}
	log.Data = hexutil.Encode(data)
	log.Account.Address = testContractAddr
	return log
}

func streakResetBlockLog(t *testing.T, txHash string, user common.Address, timestamp int64) BlockLog {
	t.Helper()

	contractABI, err := onchain.StreakABI()
	require.NoError(t, err)

	data, err := contractABI.Events["StreakReset"].Inputs.NonIndexed().Pack(
		big.NewInt(timestamp),
	)
	require.NoError(t, err)

	var log BlockLog
	log.Transaction.Hash = txHash
	log.Topics = []string{
		contractABI.Events["StreakReset"].ID.Hex(),
		common.BytesToHash(common.LeftPadBytes(user.Bytes(), 32)).Hex(),
	}
	log.Data = hexutil.Encode(data)
	log.Account.Address = testContractAddr
	return log
}

func deliveryJSON(t *testing.T, blockNumber uint64, logs ...BlockLog) []byte {
	t.Helper()

	delivery := Delivery{ID: "wh_1", Type: "GRAPHQL"}
	delivery.Event.Network = "SONEIUM_MAINNET"
	delivery.Event.Data.Block.Number = blockNumber
	delivery.Event.Data.Block.Logs = logs

	raw, err := json.Marshal(delivery)
	require.NoError(t, err)
	return raw
}

type taskFixture struct {
	task *Task
	db   *gorm.DB
}

func newTaskFixture(t *testing.T, ledger points.Ledger) *taskFixture {
	t.Helper()

	db := testutil.NewTestDB(t,
		&transaction.Record{},
		&points.Award{},
		&points.Balance{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := newTestConfig()
	cfg.Chain.ID = 1868
	cfg.Points.StreakCap = 30

	if ledger == nil {
		ledger = points.NewGormLedger()
	}

	decoder, err := onchain.NewDecoder()
	require.NoError(t, err)

	tk := NewTask(TaskParams{
		Config:  cfg,
		Decoder: decoder,
		Transactions: transaction.NewService(transaction.ServiceParams{
			DB:     db,
			Config: cfg,
		}),
		Points: points.NewService(points.ServiceParams{
			DB:     db,
			Node:   node,
			Ledger: ledger,
			Config: cfg,
		}),
	})

	return &taskFixture{task: tk, db: db}
}

func webhookTask(t *testing.T, route string, body []byte) *asynq.Task {
	t.Helper()

	task, err := NewWebhookTask(JobPayload{
		Route:          route,
		EventSignature: onchain.SigCheckIn,
		Webhook:        body,
	}, "webhooks")
	require.NoError(t, err)
	return task
}

func TestHandleWebhookTaskAwardsPoints(t *testing.T) {
	f := newTaskFixture(t, nil)
	ctx := context.Background()

	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	body := deliveryJSON(t, 42,
		checkInBlockLog(t, "0xA1", user, 7, 1700000000),
		streakResetBlockLog(t, "0xA2", user, 1700000100),
	)

	require.NoError(t, f.task.HandleWebhookTask(ctx, webhookTask(t, "checkin", body)))

	// Only the check-in matches the route's signature set.
	var records []transaction.Record
	require.NoError(t, f.db.Find(&records).Error)
	require.Len(t, records, 1)
	require.Equal(t, "0xa1", records[0].Hash)
	require.Equal(t, "CheckIn", records[0].EventName)
	require.Equal(t, uint64(42), records[0].BlockNumber)
	require.Equal(t, int64(1868), records[0].ChainID)

	var award points.Award
	require.NoError(t, f.db.First(&award, "tx_hash = ?", "0xa1").Error)
	require.Equal(t, int64(7), award.Points)
	require.Equal(t, user.Hex(), award.Address)

	var balance points.Balance
	require.NoError(t, f.db.First(&balance, "address = ?", user.Hex()).Error)
	require.Equal(t, int64(7), balance.Points)
}

func TestHandleWebhookTaskRedeliveryIsIdempotent(t *testing.T) {
	f := newTaskFixture(t, nil)
	ctx := context.Background()

	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	body := deliveryJSON(t, 42, checkInBlockLog(t, "0xa1", user, 7, 1700000000))
	task := webhookTask(t, "checkin", body)

	require.NoError(t, f.task.HandleWebhookTask(ctx, task))
	require.NoError(t, f.task.HandleWebhookTask(ctx, task))

	var recordCount, awardCount int64
	require.NoError(t, f.db.Model(&transaction.Record{}).Count(&recordCount).Error)
	require.NoError(t, f.db.Model(&points.Award{}).Count(&awardCount).Error)
	require.Equal(t, int64(1), recordCount)
	require.Equal(t, int64(1), awardCount)

	var balance points.Balance
	require.NoError(t, f.db.First(&balance, "address = ?", user.Hex()).Error)
	require.Equal(t, int64(7), balance.Points)
}

func TestHandleWebhookTaskNoSupportedEvents(t *testing.T) {
	f := newTaskFixture(t, nil)
	ctx := context.Background()

	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	body := deliveryJSON(t, 42, streakResetBlockLog(t, "0xa1", user, 1700000100))

	err := f.task.HandleWebhookTask(ctx, webhookTask(t, "checkin", body))
	require.ErrorIs(t, err, ErrNoSupportedEvents)

	var recordCount int64
	require.NoError(t, f.db.Model(&transaction.Record{}).Count(&recordCount).Error)
	require.Equal(t, int64(0), recordCount)
}

func TestHandleWebhookTaskFallsBackToJobSignature(t *testing.T) {
	f := newTaskFixture(t, nil)
	ctx := context.Background()

	// The route was removed from config after the job was queued; the job's
	// own signature tag still selects the check-in.
	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	body := deliveryJSON(t, 42, checkInBlockLog(t, "0xa1", user, 3, 1700000000))

	require.NoError(t, f.task.HandleWebhookTask(ctx, webhookTask(t, "legacy", body)))

	var awardCount int64
	require.NoError(t, f.db.Model(&points.Award{}).Count(&awardCount).Error)
	require.Equal(t, int64(1), awardCount)
}

// flakyLedger fails its first credit and then behaves normally, like a ledger
// hitting a transient storage error.
type flakyLedger struct {
	inner  points.Ledger
	failed bool
}

func (l *flakyLedger) Credit(ctx context.Context, tx *gorm.DB, address string, pts int64) error {
	if !l.failed {
		l.failed = true
		return errors.New("credit temporarily unavailable")
	}
	return l.inner.Credit(ctx, tx, address, pts)
}

func TestHandleWebhookTaskRetryAppliesFailedAward(t *testing.T) {
	f := newTaskFixture(t, &flakyLedger{inner: points.NewGormLedger()})
	ctx := context.Background()

	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	body := deliveryJSON(t, 42, checkInBlockLog(t, "0xa1", user, 7, 1700000000))
	task := webhookTask(t, "checkin", body)

	// First delivery records the transaction but the credit fails, so the job
	// errors and the queue will redeliver it.
	require.Error(t, f.task.HandleWebhookTask(ctx, task))

	var recordCount, awardCount int64
	require.NoError(t, f.db.Model(&transaction.Record{}).Count(&recordCount).Error)
	require.NoError(t, f.db.Model(&points.Award{}).Count(&awardCount).Error)
	require.Equal(t, int64(1), recordCount)
	require.Equal(t, int64(0), awardCount)

	// Redelivery finds the transaction already recorded but must still apply
	// the award that failed last time.
	require.NoError(t, f.task.HandleWebhookTask(ctx, task))

	require.NoError(t, f.db.Model(&points.Award{}).Count(&awardCount).Error)
	require.Equal(t, int64(1), awardCount)

	var balance points.Balance
	require.NoError(t, f.db.First(&balance, "address = ?", user.Hex()).Error)
	require.Equal(t, int64(7), balance.Points)
}

func TestHandleWebhookTaskMalformedPayloads(t *testing.T) {
	f := newTaskFixture(t, nil)
	ctx := context.Background()

	// Garbage job payload.
	err := f.task.HandleWebhookTask(ctx, asynq.NewTask("webhook:checkin", []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	// Valid job envelope wrapping a garbage delivery body.
	task, buildErr := NewWebhookTask(JobPayload{
		Route:          "checkin",
		EventSignature: onchain.SigCheckIn,
		Webhook:        json.RawMessage(`{"event":{}}`),
	}, "webhooks")
	require.NoError(t, buildErr)

	err = f.task.HandleWebhookTask(ctx, task)
	require.ErrorIs(t, err, asynq.SkipRetry)

	var recordCount int64
	require.NoError(t, f.db.Model(&transaction.Record{}).Count(&recordCount).Error)
	require.Equal(t, int64(0), recordCount)
}
