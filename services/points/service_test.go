package points

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"arkada-rewards/pkg/config"
	"arkada-rewards/services/onchain"
	"arkada-rewards/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var errLedgerDown = errors.New("ledger unavailable")

// failingLedger wraps the gorm ledger and fails credits for one address.
type failingLedger struct {
	inner    Ledger
	failAddr string
}

func (l *failingLedger) Credit(ctx context.Context, tx *gorm.DB, address string, pts int64) error {
	if address == l.failAddr {
		return errLedgerDown
	}
	return l.inner.Credit(ctx, tx, address, pts)
}

func newTestService(t *testing.T, ledger Ledger) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Award{}, &Balance{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	if ledger == nil {
		ledger = NewGormLedger()
	}

	cfg := &config.Config{}
	cfg.Points.StreakCap = 30

	return NewService(ServiceParams{DB: db, Node: node, Ledger: ledger, Config: cfg})
}

func checkInEvent(txHash, user string, streak int64) onchain.Event {
	return onchain.Event{
		TxHash:      txHash,
		Name:        "CheckIn",
		Signature:   onchain.SigCheckIn,
		BlockNumber: 10,
		Data: onchain.CheckInData{
			User:      user,
			Streak:    big.NewInt(streak),
			Timestamp: big.NewInt(1700000000),
		},
	}
}

func TestApplyCapsStreakPoints(t *testing.T) {
	tests := []struct {
		streak int64
		want   int64
	}{
		{5, 5},
		{30, 30},
		{31, 30},
		{1000, 30},
	}

	svc := newTestService(t, nil)
	ctx := context.Background()

	for i, tt := range tests {
		user := "0x000000000000000000000000000000000000000" + string(rune('1'+i))
		hash := "0xcap" + string(rune('a'+i))
		require.NoError(t, svc.Apply(ctx, []onchain.Event{checkInEvent(hash, user, tt.streak)}))

		var award Award
		require.NoError(t, svc.db.First(&award, "tx_hash = ?", hash).Error)
		require.Equal(t, tt.want, award.Points, "streak %d", tt.streak)

		var balance Balance
		require.NoError(t, svc.db.First(&balance, "address = ?", user).Error)
		require.Equal(t, tt.want, balance.Points)
	}
}

func TestApplyIsIdempotentPerHash(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	user := "0x2222222222222222222222222222222222222222"
	event := checkInEvent("0xa1", user, 10)

	require.NoError(t, svc.Apply(ctx, []onchain.Event{event}))
	require.NoError(t, svc.Apply(ctx, []onchain.Event{event}))

	var count int64
	require.NoError(t, svc.db.Model(&Award{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	var balance Balance
	require.NoError(t, svc.db.First(&balance, "address = ?", user).Error)
	require.Equal(t, int64(10), balance.Points)
}

func TestApplyAccumulatesBalance(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	user := "0x2222222222222222222222222222222222222222"
	require.NoError(t, svc.Apply(ctx, []onchain.Event{
		checkInEvent("0xa1", user, 3),
		checkInEvent("0xa2", user, 4),
	}))

	var balance Balance
	require.NoError(t, svc.db.First(&balance, "address = ?", user).Error)
	require.Equal(t, int64(7), balance.Points)
}

func TestApplyIsolatesPerEventFailures(t *testing.T) {
	failUser := "0xdddddddddddddddddddddddddddddddddddddddd"
	svc := newTestService(t, &failingLedger{inner: NewGormLedger(), failAddr: failUser})
	ctx := context.Background()

	okUser1 := "0x2222222222222222222222222222222222222222"
	okUser2 := "0x3333333333333333333333333333333333333333"

	err := svc.Apply(ctx, []onchain.Event{
		checkInEvent("0xa1", okUser1, 5),
		checkInEvent("0xa2", failUser, 5),
		checkInEvent("0xa3", okUser2, 5),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, errLedgerDown)

	// Siblings keep their awards.
	var count int64
	require.NoError(t, svc.db.Model(&Award{}).Count(&count).Error)
	require.Equal(t, int64(2), count)

	for _, user := range []string{okUser1, okUser2} {
		var balance Balance
		require.NoError(t, svc.db.First(&balance, "address = ?", user).Error)
		require.Equal(t, int64(5), balance.Points)
	}

	// The failed event left nothing behind, so a retried batch can apply it.
	var failedCount int64
	require.NoError(t, svc.db.Model(&Award{}).Where("tx_hash = ?", "0xa2").Count(&failedCount).Error)
	require.Equal(t, int64(0), failedCount)
}

func TestApplySkipsNonRewardEvents(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	event := onchain.Event{
		TxHash:    "0xa1",
		Name:      "StreakReset",
		Signature: onchain.SigStreakReset,
		Data: onchain.StreakResetData{
			User:      "0x2222222222222222222222222222222222222222",
			Timestamp: big.NewInt(1700000000),
		},
	}

	require.NoError(t, svc.Apply(ctx, []onchain.Event{event}))

	var count int64
	require.NoError(t, svc.db.Model(&Award{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}
