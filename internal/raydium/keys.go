package raydium

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
)

// PoolKeys is the resolved, immutable trade-routing descriptor for one pool.
// It is created once on the first buy for a pool and shared by reference for
// every later sell of the same asset; it is never mutated after creation.
type PoolKeys struct {
	ID              solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	LpMint          solana.PublicKey
	BaseDecimals    uint8
	QuoteDecimals   uint8
	ProgramID       solana.PublicKey
	Authority       solana.PublicKey
	OpenOrders      solana.PublicKey
	TargetOrders    solana.PublicKey
	BaseVault       solana.PublicKey
	QuoteVault      solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LpVault         solana.PublicKey
	MarketProgramID solana.PublicKey
	MarketID        solana.PublicKey
	MarketAuthority solana.PublicKey
	MarketBaseVault solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketBids      solana.PublicKey
	MarketAsks      solana.PublicKey
	MarketEventQueue solana.PublicKey
}

// ResolvePoolKeys combines a decoded pool account and its market account into
// a routing descriptor, deriving the market vault-signer authority from the
// nonce stored in the market state.
func ResolvePoolKeys(poolID solana.PublicKey, pool *LiquidityState, market *MarketState) (*PoolKeys, error) {
	authority, err := MarketVaultSigner(pool.MarketID, market.VaultSignerNonce, pool.MarketProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive market vault signer: %w", err)
	}

	return &PoolKeys{
		ID:               poolID,
		BaseMint:         pool.BaseMint,
		QuoteMint:        pool.QuoteMint,
		LpMint:           pool.LpMint,
		BaseDecimals:     uint8(pool.BaseDecimal),
		QuoteDecimals:    uint8(pool.QuoteDecimal),
		ProgramID:        AmmV4Program,
		Authority:        AmmV4Authority,
		OpenOrders:       pool.OpenOrders,
		TargetOrders:     pool.TargetOrders,
		BaseVault:        pool.BaseVault,
		QuoteVault:       pool.QuoteVault,
		WithdrawQueue:    pool.WithdrawQueue,
		LpVault:          pool.LpVault,
		MarketProgramID:  pool.MarketProgramID,
		MarketID:         pool.MarketID,
		MarketAuthority:  authority,
		MarketBaseVault:  market.BaseVault,
		MarketQuoteVault: market.QuoteVault,
		MarketBids:       market.Bids,
		MarketAsks:       market.Asks,
		MarketEventQueue: market.EventQueue,
	}, nil
}

// MarketVaultSigner derives the market's vault-signer program address from the
// market address and the nonce recorded in the market account. The derived
// point must be off the ed25519 curve; an on-curve result means the nonce is
// invalid for this market.
func MarketVaultSigner(marketID solana.PublicKey, nonce uint64, marketProgram solana.PublicKey) (solana.PublicKey, error) {
	var nonceLE [8]byte
	binary.LittleEndian.PutUint64(nonceLE[:], nonce)

	h := sha256.New()
	h.Write(marketID.Bytes())
	h.Write(nonceLE[:])
	h.Write(marketProgram.Bytes())
	h.Write([]byte("ProgramDerivedAddress"))
	sum := h.Sum(nil)

	if isOnCurve(sum) {
		return solana.PublicKey{}, fmt.Errorf("vault signer nonce %d yields on-curve point", nonce)
	}
	return solana.PublicKeyFromBytes(sum), nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
