package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal"
)

// TradeJournal implements journal.TradeJournal on PostgreSQL.
type TradeJournal struct {
	pool *Pool
}

// NewTradeJournal creates a new TradeJournal.
func NewTradeJournal(pool *Pool) *TradeJournal {
	return &TradeJournal{pool: pool}
}

// Compile-time interface check.
var _ journal.TradeJournal = (*TradeJournal)(nil)

// Record appends one trade event. Returns ErrDuplicateKey when the same
// bundle id and status were already journaled.
func (j *TradeJournal) Record(ctx context.Context, e *domain.TradeEvent) error {
	if e == nil || e.BundleID == "" || e.Status == "" {
		return journal.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_events (
			bundle_id, status, side, mint, pool_id,
			amount, amount_ui, tip_lamports, expected_profit,
			reason, slot, event_time
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7::numeric, $8, $9,
			$10, $11, $12
		)
	`

	_, err := j.pool.Exec(ctx, query,
		e.BundleID, string(e.Status), string(e.Side), e.Mint, e.PoolID,
		int64(e.Amount), e.AmountUI.String(), int64(e.TipLamports), int64(e.ExpectedProfit),
		e.Reason, int64(e.Slot), e.EventTime,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return journal.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade event: %w", err)
	}
	return nil
}

// EventsByMint returns every journaled event for an asset, ordered by event
// time ascending.
func (j *TradeJournal) EventsByMint(ctx context.Context, mint string) ([]*domain.TradeEvent, error) {
	query := `
		SELECT
			bundle_id, status, side, mint, pool_id,
			amount, amount_ui::text, tip_lamports, expected_profit,
			reason, slot, event_time
		FROM trade_events
		WHERE mint = $1
		ORDER BY event_time ASC, status ASC
	`

	rows, err := j.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get trade events by mint: %w", err)
	}
	defer rows.Close()

	var events []*domain.TradeEvent
	for rows.Next() {
		var (
			e                         domain.TradeEvent
			status, side, amountUI    string
			amount, tip, profit, slot int64
		)
		err := rows.Scan(
			&e.BundleID, &status, &side, &e.Mint, &e.PoolID,
			&amount, &amountUI, &tip, &profit,
			&e.Reason, &slot, &e.EventTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade event row: %w", err)
		}
		e.AmountUI, err = decimal.NewFromString(amountUI)
		if err != nil {
			return nil, fmt.Errorf("parse trade event amount_ui %q: %w", amountUI, err)
		}
		e.Status = domain.TradeStatus(status)
		e.Side = domain.TradeSide(side)
		e.Amount = uint64(amount)
		e.TipLamports = uint64(tip)
		e.ExpectedProfit = uint64(profit)
		e.Slot = uint64(slot)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade event rows: %w", err)
	}

	return events, nil
}
