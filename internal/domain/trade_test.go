package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestScaleToUI(t *testing.T) {
	tests := []struct {
		name     string
		amount   uint64
		decimals uint8
		want     string
	}{
		{"lamports to sol", 10_000_000, SolDecimals, "0.01"},
		{"six decimal token", 500_000, 6, "0.5"},
		{"zero decimals passes through", 42, 0, "42"},
		{"zero amount", 0, 9, "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScaleToUI(tc.amount, tc.decimals)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", got, tc.want)
		})
	}
}

func TestTradeDecisionSubmitted(t *testing.T) {
	now := time.Now()
	d := &TradeDecision{
		Side:           SideBuy,
		Mint:           "mint-a",
		PoolID:         "pool-a",
		Amount:         10_000_000,
		AmountUI:       ScaleToUI(10_000_000, SolDecimals),
		ExpectedProfit: 0,
		TipLamports:    100_000,
		BundleID:       "bundle-1",
		CreatedAt:      now,
	}

	e := d.Submitted()
	assert.Equal(t, StatusSubmitted, e.Status)
	assert.Equal(t, SideBuy, e.Side)
	assert.Equal(t, "bundle-1", e.BundleID)
	assert.Equal(t, "mint-a", e.Mint)
	assert.Equal(t, "pool-a", e.PoolID)
	assert.Equal(t, uint64(10_000_000), e.Amount)
	assert.True(t, e.AmountUI.Equal(d.AmountUI))
	assert.Equal(t, uint64(100_000), e.TipLamports)
	assert.Equal(t, now, e.EventTime)
}
