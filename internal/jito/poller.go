package jito

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/tracker"
)

// statusClient is the slice of Relay the poller needs.
type statusClient interface {
	BundleStatuses(ctx context.Context, ids []string) ([]*bundleStatus, error)
}

// maxStatusBatch is the engine's per-request id cap for getBundleStatuses.
const maxStatusBatch = 5

// PendingSource exposes the bundles still awaiting a result.
type PendingSource interface {
	PendingSnapshot() []*tracker.PendingBundle
}

// StatusPoller turns the block engine's pull-style status API into a result
// feed: it polls getBundleStatuses for every pending bundle and emits one
// BundleResult per resolution. Bundles that never resolve within maxAge are
// reported as rejected so their claims do not leak.
type StatusPoller struct {
	relay    statusClient
	pending  PendingSource
	interval time.Duration
	maxAge   time.Duration
	results  chan domain.BundleResult
	log      *zap.Logger
}

// NewStatusPoller creates a poller over relay, watching source's pending set.
func NewStatusPoller(relay statusClient, source PendingSource, interval, maxAge time.Duration, log *zap.Logger) *StatusPoller {
	return &StatusPoller{
		relay:    relay,
		pending:  source,
		interval: interval,
		maxAge:   maxAge,
		results:  make(chan domain.BundleResult, 64),
		log:      log,
	}
}

// Results is the feed of resolved bundles.
func (p *StatusPoller) Results() <-chan domain.BundleResult {
	return p.results
}

// Run polls until ctx is done.
func (p *StatusPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *StatusPoller) poll(ctx context.Context) {
	pending := p.pending.PendingSnapshot()
	if len(pending) == 0 {
		return
	}

	byID := make(map[string]*tracker.PendingBundle, len(pending))
	ids := make([]string, 0, len(pending))
	for _, pb := range pending {
		byID[pb.BundleID] = pb
		ids = append(ids, pb.BundleID)
	}

	for start := 0; start < len(ids); start += maxStatusBatch {
		end := start + maxStatusBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		statuses, err := p.relay.BundleStatuses(ctx, batch)
		if err != nil {
			p.log.Warn("bundle status query failed", zap.Error(err))
			continue
		}
		for _, st := range statuses {
			if st == nil {
				continue
			}
			if res, ok := resultFromStatus(st); ok {
				delete(byID, st.BundleID)
				p.emit(ctx, res)
			}
		}
	}

	// Whatever is still unresolved past maxAge gets a synthetic rejection.
	cutoff := time.Now().Add(-p.maxAge)
	for _, pb := range byID {
		if pb.SubmittedAt.Before(cutoff) {
			p.emit(ctx, domain.BundleResult{
				BundleID: pb.BundleID,
				Rejected: &domain.BundleRejected{Reason: "no result before deadline"},
			})
		}
	}
}

func (p *StatusPoller) emit(ctx context.Context, res domain.BundleResult) {
	select {
	case p.results <- res:
	case <-ctx.Done():
	}
}

// resultFromStatus maps an engine status entry onto an accept or reject.
// Entries that are neither landed nor failed yet report ok=false.
func resultFromStatus(st *bundleStatus) (domain.BundleResult, bool) {
	if failed(st.Err) {
		return domain.BundleResult{
			BundleID: st.BundleID,
			Rejected: &domain.BundleRejected{Reason: string(st.Err)},
		}, true
	}
	switch st.ConfirmationStatus {
	case "confirmed", "finalized":
		return domain.BundleResult{
			BundleID: st.BundleID,
			Accepted: &domain.BundleAccepted{Slot: st.Slot},
		}, true
	}
	return domain.BundleResult{}, false
}

// failed interprets the status err field: absent, null, or {"Ok":null} all
// mean no failure.
func failed(raw []byte) bool {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false
	}
	return !bytes.Contains(raw, []byte(`"Ok"`))
}
