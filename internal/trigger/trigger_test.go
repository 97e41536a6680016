package trigger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/tracker"
)

const (
	tradeSize  = 10_000_000
	minTrigger = 1_000_000
)

func watchingObs(solIn, solOut int64) *tracker.Observation {
	return &tracker.Observation{
		PoolID: "pool",
		Mint:   "mint",
		SolIn:  big.NewInt(solIn),
		SolOut: big.NewInt(solOut),
		Delta: domain.VolumeDelta{
			SolIn:    big.NewInt(0),
			SolOut:   big.NewInt(0),
			TokenIn:  big.NewInt(0),
			TokenOut: big.NewInt(0),
		},
		Phase: domain.PhaseWatching,
	}
}

func TestBuyOnVirginPool(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	intent := e.Evaluate(watchingObs(0, 0))
	require.NotNil(t, intent)
	assert.Equal(t, domain.SideBuy, intent.Side)
	assert.Equal(t, uint64(tradeSize), intent.AmountLamports)
	assert.Equal(t, "mint", intent.Mint)
}

func TestNoBuyWhenCountersNonzero(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	assert.Nil(t, e.Evaluate(watchingObs(1, 0)))
	assert.Nil(t, e.Evaluate(watchingObs(0, 1)))
}

func TestNoBuyWhenPoolAlreadyBought(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	obs := watchingObs(0, 0)
	obs.PoolObserved = true
	assert.Nil(t, e.Evaluate(obs))
}

func TestNoTriggerWhileClaimed(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	obs := watchingObs(0, 0)
	obs.Claimed = true
	assert.Nil(t, e.Evaluate(obs))
}

func TestSellOnRemovedAssetAboveThreshold(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	obs := watchingObs(5_000_000, 0)
	obs.Removed = true
	obs.Phase = domain.PhaseBought
	obs.Delta.SolIn = big.NewInt(2_000_000)

	intent := e.Evaluate(obs)
	require.NotNil(t, intent)
	assert.Equal(t, domain.SideSell, intent.Side)
	assert.Equal(t, uint64(2_000_000), intent.ExpectedProfit)
	assert.Zero(t, intent.AmountLamports)
}

func TestNoSellAtOrBelowThreshold(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	obs := watchingObs(5_000_000, 0)
	obs.Removed = true
	obs.Delta.SolIn = big.NewInt(minTrigger)
	assert.Nil(t, e.Evaluate(obs), "threshold is exclusive")

	obs.Delta.SolIn = big.NewInt(minTrigger + 1)
	require.NotNil(t, e.Evaluate(obs))
}

func TestNoSellWithoutRemoval(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	obs := watchingObs(5_000_000, 0)
	obs.Delta.SolIn = big.NewInt(2_000_000)
	assert.Nil(t, e.Evaluate(obs))
}

func TestNoSellWithZeroDelta(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	obs := watchingObs(5_000_000, 0)
	obs.Removed = true
	assert.Nil(t, e.Evaluate(obs))
}

func TestNoSellAfterExit(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	obs := watchingObs(5_000_000, 0)
	obs.Removed = true
	obs.Phase = domain.PhaseExited
	obs.Delta.SolIn = big.NewInt(2_000_000)
	assert.Nil(t, e.Evaluate(obs))
}

func TestBuyTakesPrecedenceOverSell(t *testing.T) {
	e := NewEngine(tradeSize, minTrigger)

	// Pathological observation qualifying for both sides.
	obs := watchingObs(0, 0)
	obs.Removed = true
	obs.Delta.SolIn = big.NewInt(2_000_000)

	intent := e.Evaluate(obs)
	require.NotNil(t, intent)
	assert.Equal(t, domain.SideBuy, intent.Side)
}
