// Package journal defines the append-only audit interfaces for trade events
// and pool observations. Implementations live in the memory, postgres and
// clickhouse subpackages; the engine works against these interfaces only.
package journal

import (
	"context"
	"errors"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
)

// Journal errors for append-only stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key already
	// exists. Append-only stores do not allow updates.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// TradeJournal records trade submissions and their relay outcomes. Entries
// are keyed by (bundle id, status).
type TradeJournal interface {
	// Record appends one trade event. Returns ErrDuplicateKey when the same
	// bundle id and status were already journaled.
	Record(ctx context.Context, e *domain.TradeEvent) error

	// EventsByMint returns every journaled event for an asset, ordered by
	// event time.
	EventsByMint(ctx context.Context, mint string) ([]*domain.TradeEvent, error)
}

// ObservationSink receives decoded pool samples for offline analysis. Writes
// are best-effort bulk appends; the trading path never blocks on them.
type ObservationSink interface {
	WriteObservations(ctx context.Context, points []*domain.PoolObservation) error
	Close() error
}
