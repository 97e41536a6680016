package clickhouse

import (
	"context"
	"fmt"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal"
)

// ObservationSink implements journal.ObservationSink using ClickHouse. Pool
// samples are high-volume, append-only timeseries data; the UInt128 columns
// hold the raw counter deltas without truncation.
type ObservationSink struct {
	conn *Conn
}

// NewObservationSink creates a new ObservationSink.
func NewObservationSink(conn *Conn) *ObservationSink {
	return &ObservationSink{conn: conn}
}

// Compile-time interface check.
var _ journal.ObservationSink = (*ObservationSink)(nil)

// WriteObservations appends a batch of pool samples.
func (s *ObservationSink) WriteObservations(ctx context.Context, points []*domain.PoolObservation) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_observations (
			pool_id, mint, slot, sol_in, sol_out, token_in, token_out, observed_at_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare observation batch: %w", err)
	}

	for _, p := range points {
		if p == nil || p.PoolID == "" || p.Mint == "" {
			return journal.ErrInvalidInput
		}
		err := batch.Append(
			p.PoolID,
			p.Mint,
			p.Slot,
			p.SolInDelta,
			p.SolOutDelta,
			p.TokenInDelta,
			p.TokenOutDelta,
			p.ObservedAtMs,
		)
		if err != nil {
			return fmt.Errorf("append observation: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send observation batch: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *ObservationSink) Close() error {
	return s.conn.Close()
}
