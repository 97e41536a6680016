package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide distinguishes buy from sell decisions.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// SolDecimals is the lamport scale of the reference asset.
const SolDecimals = 9

// ScaleToUI converts a raw integer amount to its human-readable value.
func ScaleToUI(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals))
}

// TradeDecision is the audit record of one buy or sell the engine issued.
// Amounts are raw lamport/token units; AmountUI is scaled by the asset's
// decimals for human consumption.
type TradeDecision struct {
	Side           TradeSide
	Mint           string
	PoolID         string
	Amount         uint64
	AmountUI       decimal.Decimal
	ExpectedProfit uint64
	TipLamports    uint64
	BundleID       string
	CreatedAt      time.Time
}

// Submitted is the journal entry for the decision's bundle submission.
func (d *TradeDecision) Submitted() *TradeEvent {
	return &TradeEvent{
		BundleID:       d.BundleID,
		Status:         StatusSubmitted,
		Side:           d.Side,
		Mint:           d.Mint,
		PoolID:         d.PoolID,
		Amount:         d.Amount,
		AmountUI:       d.AmountUI,
		TipLamports:    d.TipLamports,
		ExpectedProfit: d.ExpectedProfit,
		EventTime:      d.CreatedAt,
	}
}

// TradeStatus is the journaled lifecycle stage of a submitted trade.
type TradeStatus string

const (
	StatusSubmitted TradeStatus = "SUBMITTED"
	StatusAccepted  TradeStatus = "ACCEPTED"
	StatusRejected  TradeStatus = "REJECTED"
)

// TradeEvent is one append-only journal entry: a submission or its
// resolution. A trade therefore produces at most two entries per bundle id.
type TradeEvent struct {
	BundleID       string
	Status         TradeStatus
	Side           TradeSide
	Mint           string
	PoolID         string
	Amount         uint64
	AmountUI       decimal.Decimal
	TipLamports    uint64
	ExpectedProfit uint64
	// Reason carries the relay's rejection detail; empty otherwise.
	Reason string
	// Slot is the landing slot for accepted trades; zero otherwise.
	Slot      uint64
	EventTime time.Time
}
