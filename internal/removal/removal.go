// Package removal detects liquidity pulls from the raw transaction log feed.
// A pull leaves a characteristic instruction trace: two token transfers
// draining both vaults followed by an LP token burn, with nothing else in
// between on the token program.
package removal

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrLookupTimeout is returned when the transaction backing a removal
	// signature never became available within the lookup deadline.
	ErrLookupTimeout = errors.New("removal: transaction lookup deadline exceeded")

	// ErrUnsupportedPair is returned when the removal transaction does not
	// involve a reference-asset pool, or targets the stable pair.
	ErrUnsupportedPair = errors.New("removal: pool pair is not tradeable")
)

type logKind int

const (
	kindOther logKind = iota
	kindTransfer
	kindBurn
)

func classify(line string) logKind {
	switch {
	case strings.Contains(line, "Transfer"):
		return kindTransfer
	case strings.Contains(line, "Burn"):
		return kindBurn
	default:
		return kindOther
	}
}

// MatchesRemoval reports whether a transaction's log lines carry the
// liquidity-pull trace. Lines that are neither transfers nor burns are
// ignored; the remaining sequence must be exactly transfer, transfer, burn.
func MatchesRemoval(logs []string) bool {
	var seq []logKind
	for _, line := range logs {
		if k := classify(line); k != kindOther {
			seq = append(seq, k)
		}
	}
	return len(seq) == 3 &&
		seq[0] == kindTransfer &&
		seq[1] == kindTransfer &&
		seq[2] == kindBurn
}

// TxMintLookup resolves the token mints touched by a confirmed transaction.
// An empty slice with a nil error means the transaction is not yet queryable.
type TxMintLookup interface {
	TransactionMints(ctx context.Context, signature string) ([]string, error)
}

// Detector matches removal signatures and resolves the affected asset.
type Detector struct {
	lookup        TxMintLookup
	referenceMint string
	stableMint    string
	retryInterval time.Duration
	deadline      time.Duration
	log           *zap.Logger
}

// NewDetector builds a Detector. referenceMint is the pool's pricing side
// (WSOL); assets equal to stableMint are never traded.
func NewDetector(lookup TxMintLookup, referenceMint, stableMint string, retryInterval, deadline time.Duration, log *zap.Logger) *Detector {
	return &Detector{
		lookup:        lookup,
		referenceMint: referenceMint,
		stableMint:    stableMint,
		retryInterval: retryInterval,
		deadline:      deadline,
		log:           log,
	}
}

// ResolveMint fetches the transaction behind a matched removal signature and
// extracts the asset mint. Log notifications race ahead of transaction
// availability, so the lookup retries until the wall-clock deadline.
func (d *Detector) ResolveMint(ctx context.Context, signature string) (string, error) {
	deadline := time.Now().Add(d.deadline)
	ticker := time.NewTicker(d.retryInterval)
	defer ticker.Stop()

	for {
		mints, err := d.lookup.TransactionMints(ctx, signature)
		if err != nil {
			d.log.Debug("transaction lookup failed, retrying",
				zap.String("signature", signature),
				zap.Error(err))
		} else if len(mints) > 0 {
			return d.pickMint(mints)
		}

		if time.Now().After(deadline) {
			return "", ErrLookupTimeout
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// pickMint selects the tradeable asset out of the transaction's mints: the
// pool must involve the reference asset, and the other side must not be the
// stable coin.
func (d *Detector) pickMint(mints []string) (string, error) {
	hasReference := false
	candidate := ""
	for _, m := range mints {
		if m == d.referenceMint {
			hasReference = true
			continue
		}
		if candidate == "" {
			candidate = m
		}
	}
	if !hasReference || candidate == "" || candidate == d.stableMint {
		return "", ErrUnsupportedPair
	}
	return candidate, nil
}
