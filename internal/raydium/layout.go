package raydium

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// ErrBadAccountData is returned when raw account bytes do not match the
// expected fixed layout. Callers skip the observation and continue.
var ErrBadAccountData = errors.New("raydium: malformed account data")

// LiquidityStateV4 layout constants. The AMM v4 pool account is a fixed
// 752-byte struct of little-endian u64/u128 fields followed by pubkeys.
const (
	// LiquidityStateSize is the serialized size of a v4 pool account, used as
	// the dataSize subscription filter.
	LiquidityStateSize = 752

	// MarketProgramIDOffset is the byte offset of the marketProgramId field,
	// used as the memcmp subscription filter.
	MarketProgramIDOffset = 560

	baseDecimalOffset   = 32
	quoteDecimalOffset  = 40
	poolOpenTimeOffset  = 224
	swapBaseInOffset    = 256
	swapQuoteOutOffset  = 272
	swapQuoteInOffset   = 296
	swapBaseOutOffset   = 312
	baseVaultOffset     = 336
	quoteVaultOffset    = 368
	baseMintOffset      = 400
	quoteMintOffset     = 432
	lpMintOffset        = 464
	openOrdersOffset    = 496
	marketIDOffset      = 528
	targetOrdersOffset  = 592
	withdrawQueueOffset = 624
	lpVaultOffset       = 656
)

// LiquidityState is the decoded subset of a Raydium v4 pool account needed
// for tracking and trading.
type LiquidityState struct {
	BaseDecimal  uint64
	QuoteDecimal uint64
	PoolOpenTime uint64

	// Cumulative swap-volume counters. u128 on chain, monotonically
	// non-decreasing for the lifetime of the pool.
	SwapBaseIn   *big.Int
	SwapBaseOut  *big.Int
	SwapQuoteIn  *big.Int
	SwapQuoteOut *big.Int

	BaseVault       solana.PublicKey
	QuoteVault      solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	LpMint          solana.PublicKey
	OpenOrders      solana.PublicKey
	MarketID        solana.PublicKey
	MarketProgramID solana.PublicKey
	TargetOrders    solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LpVault         solana.PublicKey
}

// DecodeLiquidityState parses a raw v4 pool account.
func DecodeLiquidityState(data []byte) (*LiquidityState, error) {
	if len(data) != LiquidityStateSize {
		return nil, fmt.Errorf("%w: pool account is %d bytes, want %d", ErrBadAccountData, len(data), LiquidityStateSize)
	}

	return &LiquidityState{
		BaseDecimal:  binary.LittleEndian.Uint64(data[baseDecimalOffset:]),
		QuoteDecimal: binary.LittleEndian.Uint64(data[quoteDecimalOffset:]),
		PoolOpenTime: binary.LittleEndian.Uint64(data[poolOpenTimeOffset:]),

		SwapBaseIn:   readUint128LE(data, swapBaseInOffset),
		SwapBaseOut:  readUint128LE(data, swapBaseOutOffset),
		SwapQuoteIn:  readUint128LE(data, swapQuoteInOffset),
		SwapQuoteOut: readUint128LE(data, swapQuoteOutOffset),

		BaseVault:       readPubkey(data, baseVaultOffset),
		QuoteVault:      readPubkey(data, quoteVaultOffset),
		BaseMint:        readPubkey(data, baseMintOffset),
		QuoteMint:       readPubkey(data, quoteMintOffset),
		LpMint:          readPubkey(data, lpMintOffset),
		OpenOrders:      readPubkey(data, openOrdersOffset),
		MarketID:        readPubkey(data, marketIDOffset),
		MarketProgramID: readPubkey(data, MarketProgramIDOffset),
		TargetOrders:    readPubkey(data, targetOrdersOffset),
		WithdrawQueue:   readPubkey(data, withdrawQueueOffset),
		LpVault:         readPubkey(data, lpVaultOffset),
	}, nil
}

// MarketStateV3 layout constants. The OpenBook market account is a fixed
// 388-byte struct framed by "serum" padding bytes.
const (
	// MarketStateSize is the serialized size of an OpenBook market account.
	MarketStateSize = 388

	marketOwnAddressOffset   = 13
	vaultSignerNonceOffset   = 45
	marketBaseVaultOffset    = 117
	marketQuoteVaultOffset   = 165
	marketRequestQueueOffset = 221
	marketEventQueueOffset   = 253
	marketBidsOffset         = 285
	marketAsksOffset         = 317
)

// MarketState is the decoded subset of an OpenBook market account needed to
// route a swap through the market's matching engine.
type MarketState struct {
	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	RequestQueue     solana.PublicKey
	EventQueue       solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
}

// DecodeMarketState parses a raw OpenBook market account.
func DecodeMarketState(data []byte) (*MarketState, error) {
	if len(data) != MarketStateSize {
		return nil, fmt.Errorf("%w: market account is %d bytes, want %d", ErrBadAccountData, len(data), MarketStateSize)
	}

	return &MarketState{
		OwnAddress:       readPubkey(data, marketOwnAddressOffset),
		VaultSignerNonce: binary.LittleEndian.Uint64(data[vaultSignerNonceOffset:]),
		BaseVault:        readPubkey(data, marketBaseVaultOffset),
		QuoteVault:       readPubkey(data, marketQuoteVaultOffset),
		RequestQueue:     readPubkey(data, marketRequestQueueOffset),
		EventQueue:       readPubkey(data, marketEventQueueOffset),
		Bids:             readPubkey(data, marketBidsOffset),
		Asks:             readPubkey(data, marketAsksOffset),
	}, nil
}

// readUint128LE reads a little-endian u128 as a big.Int.
func readUint128LE(data []byte, offset int) *big.Int {
	buf := make([]byte, 16)
	// Reverse to big-endian for big.Int.
	for i := 0; i < 16; i++ {
		buf[15-i] = data[offset+i]
	}
	return new(big.Int).SetBytes(buf)
}

func readPubkey(data []byte, offset int) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[offset : offset+32])
}
