package domain

import "math/big"

// TrackingPhase is the lifecycle phase of a tracked asset.
type TrackingPhase string

const (
	// PhaseUnseen means the asset has never been observed.
	PhaseUnseen TrackingPhase = "UNSEEN"
	// PhaseWatching means the asset's pool is being sampled but no position is held.
	PhaseWatching TrackingPhase = "WATCHING"
	// PhaseBought means a buy bundle for the asset has been accepted.
	PhaseBought TrackingPhase = "BOUGHT"
	// PhaseSelling means a sell bundle is in flight.
	PhaseSelling TrackingPhase = "SELLING"
	// PhaseExited means the position was closed (or is held with no further action).
	PhaseExited TrackingPhase = "EXITED"
)

// AssetState tracks the cumulative swap-volume counters for one asset, sampled
// from its pool account. Counters are monotonically non-decreasing on chain;
// a delta is only meaningful between two samples of the same pool.
type AssetState struct {
	// Mint is the base58 token mint address.
	Mint string
	// IsBaseAsset reports which side of the pool the asset occupies
	// (true: base side, SOL is the quote; false: quote side, SOL is the base).
	IsBaseAsset bool
	// Decimals is the token's decimal scale.
	Decimals uint8

	// Cumulative counters at the last committed sample.
	LastSolIn    *big.Int
	LastSolOut   *big.Int
	LastTokenIn  *big.Int
	LastTokenOut *big.Int

	Phase TrackingPhase
}

// Clone returns a deep copy so callers never share big.Int pointers with the
// tracker's owned state.
func (s *AssetState) Clone() *AssetState {
	if s == nil {
		return nil
	}
	c := *s
	c.LastSolIn = new(big.Int).Set(s.LastSolIn)
	c.LastSolOut = new(big.Int).Set(s.LastSolOut)
	c.LastTokenIn = new(big.Int).Set(s.LastTokenIn)
	c.LastTokenOut = new(big.Int).Set(s.LastTokenOut)
	return &c
}

// VolumeDelta is the counter movement between two samples of the same pool.
// All values are non-negative by construction.
type VolumeDelta struct {
	SolIn    *big.Int
	SolOut   *big.Int
	TokenIn  *big.Int
	TokenOut *big.Int
}

// IsZero reports whether no counter moved since the last sample.
func (d VolumeDelta) IsZero() bool {
	return d.SolIn.Sign() == 0 && d.SolOut.Sign() == 0 &&
		d.TokenIn.Sign() == 0 && d.TokenOut.Sign() == 0
}

// PoolObservation is one delta sample of a pool, recorded for post-hoc analysis.
type PoolObservation struct {
	PoolID        string
	Mint          string
	Slot          uint64
	SolInDelta    *big.Int
	SolOutDelta   *big.Int
	TokenInDelta  *big.Int
	TokenOutDelta *big.Int
	ObservedAtMs  int64
}
