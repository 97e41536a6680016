package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the engine depends on.
type RPCClient interface {
	// TransactionMints returns the token mints a confirmed transaction
	// touched. A nil slice with nil error means the transaction is not yet
	// queryable at the configured commitment.
	TransactionMints(ctx context.Context, signature string) ([]string, error)

	// TokenBalance returns the owner's aggregate balance for a mint in raw
	// base units.
	TokenBalance(ctx context.Context, owner, mint string) (uint64, error)

	// GetLatestBlockhash returns a recent blockhash for transaction assembly.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// GetAccountInfo retrieves raw account data by public key. Returns nil
	// when the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
