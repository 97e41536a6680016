package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to transaction logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// SubscribeProgram subscribes to account updates owned by a program.
	SubscribeProgram(ctx context.Context, filter ProgramFilter) (<-chan AccountNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// LogsFilter defines subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs that mention any of these program IDs.
	Mentions []string
}

// ProgramFilter selects the accounts of one program, optionally narrowed by
// exact account size and a byte match at a fixed offset.
type ProgramFilter struct {
	// Program is the owning program's base58 id.
	Program string
	// DataSize filters accounts by exact byte length; zero disables.
	DataSize uint64
	// MemcmpOffset and MemcmpBytes filter by an exact byte match at a fixed
	// offset; empty MemcmpBytes disables. Bytes are base58-encoded on the
	// wire.
	MemcmpOffset uint64
	MemcmpBytes  []byte
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// AccountNotification is one account update from a program subscription.
// Data is the decoded raw account payload.
type AccountNotification struct {
	Pubkey string
	Slot   int64
	Data   []byte
}
