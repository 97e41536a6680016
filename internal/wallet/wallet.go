// Package wallet holds the trading keypair and resolves token balances.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// ErrBalanceUnavailable is returned when the wallet's balance for an asset
// cannot be resolved from the RPC node.
var ErrBalanceUnavailable = errors.New("wallet: token balance unavailable")

// BalanceSource queries the owner's current balance for a token mint, in raw
// base units.
type BalanceSource interface {
	TokenBalance(ctx context.Context, owner, mint string) (uint64, error)
}

// Wallet is the signing keypair plus a per-asset balance cache. The first
// non-zero balance observed for a mint is cached for the life of the process:
// snipe positions are entered once and liquidated whole, so the post-buy
// balance is the position size until exit.
type Wallet struct {
	priv   solana.PrivateKey
	pub    solana.PublicKey
	source BalanceSource

	mu       sync.Mutex
	balances map[string]uint64
}

// New derives a Wallet from a base58-encoded private key.
func New(privateKeyBase58 string, source BalanceSource) (*Wallet, error) {
	priv, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("wallet: parse private key: %w", err)
	}
	return &Wallet{
		priv:     priv,
		pub:      priv.PublicKey(),
		source:   source,
		balances: make(map[string]uint64),
	}, nil
}

// PublicKey returns the wallet's address.
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.pub
}

// Signer returns a key resolver suitable for transaction signing.
func (w *Wallet) Signer() func(solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	}
}

// Balance resolves the wallet's balance for mint. A cached non-zero balance
// is returned without an RPC round trip; a zero balance is reported but never
// cached, so the next call re-queries.
func (w *Wallet) Balance(ctx context.Context, mint string) (uint64, error) {
	w.mu.Lock()
	if cached, ok := w.balances[mint]; ok {
		w.mu.Unlock()
		return cached, nil
	}
	w.mu.Unlock()

	amount, err := w.source.TokenBalance(ctx, w.pub.String(), mint)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBalanceUnavailable, mint, err)
	}
	if amount == 0 {
		return 0, nil
	}

	w.mu.Lock()
	w.balances[mint] = amount
	w.mu.Unlock()
	return amount, nil
}
