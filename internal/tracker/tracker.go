// Package tracker owns all mutable per-asset tracking state. Every map is
// guarded by a single mutex; event handlers receive copies and never hold
// references into the tracker's own maps.
package tracker

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/raydium"
)

// ErrUnpriceablePool is returned when neither side of a pool is the reference
// asset. Such a pool cannot be priced and is skipped permanently.
var ErrUnpriceablePool = errors.New("tracker: neither pool side is the reference asset")

// PendingBundle correlates a submitted bundle id with the state transition it
// represents. It is created at submission and consumed exactly once when the
// relay reports the bundle's fate.
type PendingBundle struct {
	BundleID    string
	Mint        string
	PoolID      string
	Side        domain.TradeSide
	Keys        *raydium.PoolKeys
	Intended    *domain.AssetState
	SubmittedAt time.Time
}

// Observation is one decoded sample of a pool, with the counter movement
// since the asset's current baseline.
type Observation struct {
	PoolID      string
	Mint        string
	IsBaseAsset bool
	Decimals    uint8

	// Current cumulative counters, reference-asset side and token side.
	SolIn    *big.Int
	SolOut   *big.Int
	TokenIn  *big.Int
	TokenOut *big.Int

	// Delta is the movement since the baseline sample.
	Delta domain.VolumeDelta

	// IsNewPool reports whether this pool id had never been sampled before.
	IsNewPool bool
	// Phase is the asset's lifecycle phase at sampling time.
	Phase domain.TrackingPhase
	// Removed reports whether the asset's liquidity-removal signature was seen.
	Removed bool
	// Claimed reports whether a trigger pipeline for the asset is in flight.
	Claimed bool
	// PoolObserved reports whether a buy for this pool id has been committed.
	PoolObserved bool
}

// Tracker is the single owner of per-asset tracking state.
type Tracker struct {
	mu sync.Mutex

	referenceMint string

	states    map[string]*domain.AssetState // mint -> counters + phase
	seenPools map[string]struct{}           // pool ids ever sampled
	observed  map[string]struct{}           // pool ids with a committed buy
	removed   map[string]struct{}           // mints whose liquidity was pulled
	keys      map[string]*raydium.PoolKeys  // mint -> routing keys
	pending   map[string]*PendingBundle     // bundle id -> in-flight bundle
	claims    map[string]struct{}           // mints with an in-flight pipeline
}

// New creates a Tracker pricing pools against referenceMint.
func New(referenceMint string) *Tracker {
	return &Tracker{
		referenceMint: referenceMint,
		states:        make(map[string]*domain.AssetState),
		seenPools:     make(map[string]struct{}),
		observed:      make(map[string]struct{}),
		removed:       make(map[string]struct{}),
		keys:          make(map[string]*raydium.PoolKeys),
		pending:       make(map[string]*PendingBundle),
		claims:        make(map[string]struct{}),
	}
}

// Observe ingests one decoded pool account sample. It orients the pool
// against the reference asset, computes the counter delta since the asset's
// baseline, and refreshes the baseline for assets that are not sell-eligible.
//
// Counter deltas are non-negative by construction. A counter decrease means
// the pool was reinitialized; the sample becomes a fresh baseline and the
// delta is zero.
func (t *Tracker) Observe(poolID string, st *raydium.LiquidityState) (*Observation, error) {
	var (
		mint     string
		isBase   bool
		decimals uint8
		solIn    *big.Int
		solOut   *big.Int
		tokenIn  *big.Int
		tokenOut *big.Int
	)

	switch t.referenceMint {
	case st.QuoteMint.String():
		// Asset occupies the base side; SOL flows through the quote counters.
		mint = st.BaseMint.String()
		isBase = true
		decimals = uint8(st.BaseDecimal)
		solIn, solOut = st.SwapQuoteIn, st.SwapQuoteOut
		tokenIn, tokenOut = st.SwapBaseIn, st.SwapBaseOut
	case st.BaseMint.String():
		mint = st.QuoteMint.String()
		isBase = false
		decimals = uint8(st.QuoteDecimal)
		solIn, solOut = st.SwapBaseIn, st.SwapBaseOut
		tokenIn, tokenOut = st.SwapQuoteIn, st.SwapQuoteOut
	default:
		return nil, fmt.Errorf("%w: pool %s (%s/%s)", ErrUnpriceablePool, poolID, st.BaseMint, st.QuoteMint)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, seen := t.seenPools[poolID]
	t.seenPools[poolID] = struct{}{}

	state, ok := t.states[mint]
	if !ok {
		state = &domain.AssetState{
			Mint:         mint,
			IsBaseAsset:  isBase,
			Decimals:     decimals,
			LastSolIn:    new(big.Int).Set(solIn),
			LastSolOut:   new(big.Int).Set(solOut),
			LastTokenIn:  new(big.Int).Set(tokenIn),
			LastTokenOut: new(big.Int).Set(tokenOut),
			Phase:        domain.PhaseWatching,
		}
		t.states[mint] = state
	}

	delta := domain.VolumeDelta{
		SolIn:    deltaOrReset(solIn, state.LastSolIn),
		SolOut:   deltaOrReset(solOut, state.LastSolOut),
		TokenIn:  deltaOrReset(tokenIn, state.LastTokenIn),
		TokenOut: deltaOrReset(tokenOut, state.LastTokenOut),
	}

	_, isRemoved := t.removed[mint]
	_, isClaimed := t.claims[mint]
	_, poolObserved := t.observed[poolID]

	// Assets without a removal flag are not sell-eligible: the sample becomes
	// the new baseline so that a later removal measures volume from here.
	// Sell-eligible assets keep their baseline until a sell commits.
	if !isRemoved {
		state.LastSolIn.Set(solIn)
		state.LastSolOut.Set(solOut)
		state.LastTokenIn.Set(tokenIn)
		state.LastTokenOut.Set(tokenOut)
	}

	return &Observation{
		PoolID:       poolID,
		Mint:         mint,
		IsBaseAsset:  isBase,
		Decimals:     decimals,
		SolIn:        new(big.Int).Set(solIn),
		SolOut:       new(big.Int).Set(solOut),
		TokenIn:      new(big.Int).Set(tokenIn),
		TokenOut:     new(big.Int).Set(tokenOut),
		Delta:        delta,
		IsNewPool:    !seen,
		Phase:        state.Phase,
		Removed:      isRemoved,
		Claimed:      isClaimed,
		PoolObserved: poolObserved,
	}, nil
}

// deltaOrReset returns current-last, or zero when the counter went backwards
// (pool reinitialization).
func deltaOrReset(current, last *big.Int) *big.Int {
	if current.Cmp(last) < 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(current, last)
}

// MarkRemoved flags an asset whose liquidity-removal signature was observed.
// Returns true when the flag is new.
func (t *Tracker) MarkRemoved(mint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.removed[mint]; ok {
		return false
	}
	t.removed[mint] = struct{}{}
	return true
}

// IsRemoved reports whether the asset's removal signature was seen.
func (t *Tracker) IsRemoved(mint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.removed[mint]
	return ok
}

// PoolObserved reports whether a buy for this pool id has been committed.
func (t *Tracker) PoolObserved(poolID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.observed[poolID]
	return ok
}

// Keys returns the routing keys committed for an asset, if any.
func (t *Tracker) Keys(mint string) (*raydium.PoolKeys, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k, ok := t.keys[mint]
	return k, ok
}

// State returns a copy of the asset's tracking state.
func (t *Tracker) State(mint string) (*domain.AssetState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[mint]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// TryClaim atomically claims the single in-flight pipeline slot for an asset.
// It must be called before any await point in a trigger pipeline; a false
// return means another pipeline for the asset is already in flight.
func (t *Tracker) TryClaim(mint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.claims[mint]; ok {
		return false
	}
	t.claims[mint] = struct{}{}
	return true
}

// ReleaseClaim frees the in-flight slot without committing anything. Used
// when a pipeline aborts before or during submission.
func (t *Tracker) ReleaseClaim(mint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.claims, mint)
}

// RegisterPending records an in-flight bundle under its relay-unique id.
// The asset's claim stays held until the bundle resolves.
func (t *Tracker) RegisterPending(pb *PendingBundle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[pb.BundleID] = pb
}

// PendingSnapshot returns the currently unresolved bundles. Entries are
// shared pointers; callers treat them as read-only.
func (t *Tracker) PendingSnapshot() []*PendingBundle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*PendingBundle, 0, len(t.pending))
	for _, pb := range t.pending {
		out = append(out, pb)
	}
	return out
}

// PendingCount returns the number of unresolved bundles.
func (t *Tracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Resolve consumes a relay bundle result. On acceptance the bundle's intended
// state is committed: the pool is marked bought, routing keys are retained,
// and the asset's counters and phase advance. On rejection the pending record
// is dropped and the asset becomes eligible for re-triggering. Results for
// unknown bundle ids are a no-op.
//
// This is the only place speculative state becomes committed state.
func (t *Tracker) Resolve(res domain.BundleResult) (*PendingBundle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pb, ok := t.pending[res.BundleID]
	if !ok {
		return nil, false
	}
	delete(t.pending, res.BundleID)
	delete(t.claims, pb.Mint)

	if res.Accepted == nil {
		return pb, true
	}

	if pb.Side == domain.SideBuy {
		t.observed[pb.PoolID] = struct{}{}
		if pb.Keys != nil {
			t.keys[pb.Mint] = pb.Keys
		}
	}
	if pb.Intended != nil {
		t.states[pb.Mint] = pb.Intended.Clone()
	}
	return pb, true
}
