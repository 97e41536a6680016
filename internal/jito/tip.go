package jito

import (
	"math"
	"math/big"
)

// TipPolicy sizes the bundle tip from the expected profit of a trade.
type TipPolicy struct {
	// MinProfitLamports is the profit below which the flat default applies.
	MinProfitLamports uint64
	// Percent is the profit share paid as tip, in whole percent.
	Percent uint64
	// DefaultLamports is the flat tip for buys and marginal sells.
	DefaultLamports uint64
}

// TipLamports returns the tip for a trade with the given expected profit.
// Unknown or marginal profit pays the flat default; anything above the
// threshold pays the configured percentage, truncated to whole lamports.
// The percentage is taken in arbitrary precision so huge profit estimates
// cannot wrap the multiplication.
func (p TipPolicy) TipLamports(expectedProfit uint64) uint64 {
	if expectedProfit == 0 || expectedProfit < p.MinProfitLamports {
		return p.DefaultLamports
	}
	tip := new(big.Int).SetUint64(expectedProfit)
	tip.Mul(tip, new(big.Int).SetUint64(p.Percent))
	tip.Quo(tip, big.NewInt(100))
	if !tip.IsUint64() {
		return math.MaxUint64
	}
	return tip.Uint64()
}
