package jito

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/tracker"
)

type stubStatusClient struct {
	statuses []*bundleStatus
	batches  [][]string
	err      error
}

func (s *stubStatusClient) BundleStatuses(_ context.Context, ids []string) ([]*bundleStatus, error) {
	s.batches = append(s.batches, append([]string(nil), ids...))
	return s.statuses, s.err
}

type stubPending struct {
	bundles []*tracker.PendingBundle
}

func (s *stubPending) PendingSnapshot() []*tracker.PendingBundle {
	return s.bundles
}

func runOnePoll(t *testing.T, client statusClient, source PendingSource) []domain.BundleResult {
	t.Helper()
	p := NewStatusPoller(client, source, time.Millisecond, time.Minute, zap.NewNop())
	p.poll(context.Background())

	var out []domain.BundleResult
	for {
		select {
		case res := <-p.results:
			out = append(out, res)
		default:
			return out
		}
	}
}

func TestPollEmitsAcceptance(t *testing.T) {
	client := &stubStatusClient{statuses: []*bundleStatus{
		{BundleID: "b1", Slot: 500, ConfirmationStatus: "confirmed", Err: json.RawMessage(`{"Ok":null}`)},
	}}
	source := &stubPending{bundles: []*tracker.PendingBundle{
		{BundleID: "b1", SubmittedAt: time.Now()},
	}}

	results := runOnePoll(t, client, source)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Accepted)
	assert.Equal(t, uint64(500), results[0].Accepted.Slot)
}

func TestPollEmitsRejection(t *testing.T) {
	client := &stubStatusClient{statuses: []*bundleStatus{
		{BundleID: "b1", ConfirmationStatus: "processed", Err: json.RawMessage(`{"Err":"StateAuctionBidRejected"}`)},
	}}
	source := &stubPending{bundles: []*tracker.PendingBundle{
		{BundleID: "b1", SubmittedAt: time.Now()},
	}}

	results := runOnePoll(t, client, source)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Rejected)
	assert.Contains(t, results[0].Rejected.Reason, "StateAuctionBidRejected")
}

func TestPollKeepsWaitingOnProcessed(t *testing.T) {
	client := &stubStatusClient{statuses: []*bundleStatus{
		{BundleID: "b1", ConfirmationStatus: "processed"},
	}}
	source := &stubPending{bundles: []*tracker.PendingBundle{
		{BundleID: "b1", SubmittedAt: time.Now()},
	}}

	assert.Empty(t, runOnePoll(t, client, source))
}

func TestPollSynthesizesRejectionPastDeadline(t *testing.T) {
	client := &stubStatusClient{}
	source := &stubPending{bundles: []*tracker.PendingBundle{
		{BundleID: "stale", SubmittedAt: time.Now().Add(-2 * time.Minute)},
	}}

	results := runOnePoll(t, client, source)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Rejected)
}

func TestPollBatchesStatusQueries(t *testing.T) {
	client := &stubStatusClient{}
	var bundles []*tracker.PendingBundle
	for i := 0; i < maxStatusBatch+2; i++ {
		bundles = append(bundles, &tracker.PendingBundle{
			BundleID:    string(rune('a' + i)),
			SubmittedAt: time.Now(),
		})
	}

	runOnePoll(t, client, &stubPending{bundles: bundles})
	require.Len(t, client.batches, 2)
	assert.Len(t, client.batches[0], maxStatusBatch)
	assert.Len(t, client.batches[1], 2)
}

func TestPollNoPendingNoQueries(t *testing.T) {
	client := &stubStatusClient{err: assert.AnError}
	assert.Empty(t, runOnePoll(t, client, &stubPending{}))
}
