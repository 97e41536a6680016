package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal"
)

// TradeJournal is an in-memory implementation of journal.TradeJournal.
type TradeJournal struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeEvent // keyed by bundle_id/status
}

// NewTradeJournal creates a new in-memory trade journal.
func NewTradeJournal() *TradeJournal {
	return &TradeJournal{
		data: make(map[string]*domain.TradeEvent),
	}
}

var _ journal.TradeJournal = (*TradeJournal)(nil)

func eventKey(e *domain.TradeEvent) string {
	return e.BundleID + "/" + string(e.Status)
}

// Record appends one trade event. Returns ErrDuplicateKey if the same bundle
// id and status were already journaled.
func (j *TradeJournal) Record(_ context.Context, e *domain.TradeEvent) error {
	if e == nil || e.BundleID == "" || e.Status == "" {
		return journal.ErrInvalidInput
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	key := eventKey(e)
	if _, exists := j.data[key]; exists {
		return journal.ErrDuplicateKey
	}

	clone := *e
	j.data[key] = &clone
	return nil
}

// EventsByMint returns every journaled event for an asset, ordered by event
// time ascending.
func (j *TradeJournal) EventsByMint(_ context.Context, mint string) ([]*domain.TradeEvent, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []*domain.TradeEvent
	for _, e := range j.data {
		if e.Mint == mint {
			clone := *e
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].EventTime.Before(result[k].EventTime)
	})

	return result, nil
}
