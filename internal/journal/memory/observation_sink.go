package memory

import (
	"context"
	"sync"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal"
)

// ObservationSink is an in-memory implementation of journal.ObservationSink,
// bounded to the most recent maxPoints samples.
type ObservationSink struct {
	mu        sync.Mutex
	points    []*domain.PoolObservation
	maxPoints int
}

// NewObservationSink creates a sink retaining up to maxPoints samples.
func NewObservationSink(maxPoints int) *ObservationSink {
	return &ObservationSink{maxPoints: maxPoints}
}

var _ journal.ObservationSink = (*ObservationSink)(nil)

// WriteObservations appends samples, evicting the oldest past capacity.
func (s *ObservationSink) WriteObservations(_ context.Context, points []*domain.PoolObservation) error {
	for _, p := range points {
		if p == nil || p.PoolID == "" || p.Mint == "" {
			return journal.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = append(s.points, points...)
	if over := len(s.points) - s.maxPoints; over > 0 {
		s.points = append([]*domain.PoolObservation(nil), s.points[over:]...)
	}
	return nil
}

// Snapshot returns the retained samples, oldest first.
func (s *ObservationSink) Snapshot() []*domain.PoolObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.PoolObservation, len(s.points))
	copy(out, s.points)
	return out
}

// Close is a no-op.
func (s *ObservationSink) Close() error {
	return nil
}
