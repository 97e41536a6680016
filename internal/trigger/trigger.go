// Package trigger decides, from a single pool observation, whether a trade
// should be attempted. Evaluation is pure: it holds no locks and performs no
// I/O, so the caller can run it inline on the account feed.
package trigger

import (
	"math"
	"math/big"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/tracker"
)

// Intent is a trade the engine wants to attempt. The execution pipeline still
// has to claim the asset, resolve routing keys and balances, and submit.
type Intent struct {
	Side   domain.TradeSide
	Mint   string
	PoolID string

	// AmountLamports is the reference-asset spend for a buy. Sells liquidate
	// the full wallet balance, resolved at execution time.
	AmountLamports uint64

	// ExpectedProfit is the reference-asset volume backing a sell, used for
	// tip sizing. Zero for buys.
	ExpectedProfit uint64
}

// Engine applies the buy and sell rules to observations.
type Engine struct {
	tradeSizeLamports  uint64
	minTriggerLamports uint64
}

// NewEngine creates a trigger engine. tradeSize is the lamports committed to
// each buy; minTrigger is the reference-asset inflow a sell must exceed.
func NewEngine(tradeSize, minTrigger uint64) *Engine {
	return &Engine{
		tradeSizeLamports:  tradeSize,
		minTriggerLamports: minTrigger,
	}
}

// Evaluate returns the trade intent for an observation, or nil when nothing
// qualifies. When an observation qualifies for both sides, the buy wins: a
// pool whose lifetime counters are still zero cannot have accrued volume
// worth selling into.
func (e *Engine) Evaluate(obs *tracker.Observation) *Intent {
	if obs.Claimed {
		return nil
	}
	if intent := e.evaluateBuy(obs); intent != nil {
		return intent
	}
	return e.evaluateSell(obs)
}

// evaluateBuy fires on the first sight of a virgin pool: both lifetime
// reference-asset counters are zero and no buy was ever committed for it.
func (e *Engine) evaluateBuy(obs *tracker.Observation) *Intent {
	if obs.PoolObserved {
		return nil
	}
	if obs.Phase != domain.PhaseWatching {
		return nil
	}
	if obs.SolIn.Sign() != 0 || obs.SolOut.Sign() != 0 {
		return nil
	}
	return &Intent{
		Side:           domain.SideBuy,
		Mint:           obs.Mint,
		PoolID:         obs.PoolID,
		AmountLamports: e.tradeSizeLamports,
	}
}

// evaluateSell fires when an asset whose liquidity was pulled still shows
// fresh reference-asset inflow above the configured threshold.
func (e *Engine) evaluateSell(obs *tracker.Observation) *Intent {
	if !obs.Removed {
		return nil
	}
	if obs.Phase != domain.PhaseWatching && obs.Phase != domain.PhaseBought {
		return nil
	}
	if obs.Delta.IsZero() {
		return nil
	}
	threshold := new(big.Int).SetUint64(e.minTriggerLamports)
	if obs.Delta.SolIn.Cmp(threshold) <= 0 {
		return nil
	}
	return &Intent{
		Side:           domain.SideSell,
		Mint:           obs.Mint,
		PoolID:         obs.PoolID,
		ExpectedProfit: clampUint64(obs.Delta.SolIn),
	}
}

func clampUint64(v *big.Int) uint64 {
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}
