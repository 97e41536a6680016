package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal"
)

func testEvent(bundleID string, status domain.TradeStatus, at time.Time) *domain.TradeEvent {
	return &domain.TradeEvent{
		BundleID:  bundleID,
		Status:    status,
		Side:      domain.SideBuy,
		Mint:      "mint-a",
		PoolID:    "pool-a",
		Amount:    10_000_000,
		EventTime: at,
	}
}

func TestRecordAndQuery(t *testing.T) {
	j := NewTradeJournal()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, j.Record(ctx, testEvent("b1", domain.StatusSubmitted, now)))
	require.NoError(t, j.Record(ctx, testEvent("b1", domain.StatusAccepted, now.Add(time.Second))))

	events, err := j.EventsByMint(ctx, "mint-a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.StatusSubmitted, events[0].Status)
	assert.Equal(t, domain.StatusAccepted, events[1].Status)

	events, err = j.EventsByMint(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecordDuplicate(t *testing.T) {
	j := NewTradeJournal()
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, testEvent("b1", domain.StatusSubmitted, time.Now())))
	err := j.Record(ctx, testEvent("b1", domain.StatusSubmitted, time.Now()))
	require.ErrorIs(t, err, journal.ErrDuplicateKey)
}

func TestRecordInvalidInput(t *testing.T) {
	j := NewTradeJournal()
	ctx := context.Background()

	require.ErrorIs(t, j.Record(ctx, nil), journal.ErrInvalidInput)
	require.ErrorIs(t, j.Record(ctx, &domain.TradeEvent{Status: domain.StatusSubmitted}), journal.ErrInvalidInput)
}

func TestQueryReturnsCopies(t *testing.T) {
	j := NewTradeJournal()
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, testEvent("b1", domain.StatusSubmitted, time.Now())))
	events, err := j.EventsByMint(ctx, "mint-a")
	require.NoError(t, err)
	events[0].Reason = "mutated"

	events, err = j.EventsByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Empty(t, events[0].Reason)
}
