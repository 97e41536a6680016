// Package stub provides an in-memory solana.RPCClient for testing.
package stub

import (
	"context"
	"sync"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/solana"
)

// RPCClient implements solana.RPCClient against in-memory fixtures.
type RPCClient struct {
	mu       sync.Mutex
	mints    map[string][]string
	balances map[string]uint64
	accounts map[string]*solana.AccountInfo

	// Blockhash is returned by GetLatestBlockhash.
	Blockhash string

	// Err, when set, is returned by every method.
	Err error
}

// NewRPCClient creates an empty stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		mints:     make(map[string][]string),
		balances:  make(map[string]uint64),
		accounts:  make(map[string]*solana.AccountInfo),
		Blockhash: "11111111111111111111111111111111",
	}
}

// SetTransactionMints registers the mints resolved for a signature.
func (c *RPCClient) SetTransactionMints(signature string, mints []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mints[signature] = mints
}

// SetTokenBalance registers the owner's balance for a mint.
func (c *RPCClient) SetTokenBalance(owner, mint string, amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[owner+"/"+mint] = amount
}

// SetAccount registers account info for a public key.
func (c *RPCClient) SetAccount(pubkey string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[pubkey] = info
}

// TransactionMints returns the registered mints for signature, or nil when
// the transaction is unknown (mirroring a not-yet-confirmed lookup).
func (c *RPCClient) TransactionMints(_ context.Context, signature string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.mints[signature], nil
}

// TokenBalance returns the registered balance, zero when unset.
func (c *RPCClient) TokenBalance(_ context.Context, owner, mint string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	return c.balances[owner+"/"+mint], nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	return c.Blockhash, nil
}

// GetAccountInfo returns the registered account, nil when absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.accounts[pubkey], nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
