// Package bot wires the account feed, log feed, trigger engine and bundle
// correlator into one running sniper.
package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/domain"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/jito"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/observability"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/raydium"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/removal"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/solana"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/tracker"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/trigger"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/wallet"
)

// BundleSender is the slice of the relay the engine submits through.
type BundleSender interface {
	SendBundle(ctx context.Context, txs []*sol.Transaction) (string, error)
}

// Config carries the engine's tunables.
type Config struct {
	ReferenceMint         string
	StableMint            string
	TradeSizeLamports     uint64
	MinSolTriggerLamports uint64
	Tip                   jito.TipPolicy
	LookupRetryInterval   time.Duration
	LookupDeadline        time.Duration
	SinkFlushInterval     time.Duration
}

// Deps are the engine's external collaborators.
type Deps struct {
	WS      solana.WSClient
	RPC     solana.RPCClient
	Wallet  *wallet.Wallet
	Relay   BundleSender
	Results <-chan domain.BundleResult
	Journal journal.TradeJournal
	Sink    journal.ObservationSink
	Metrics *observability.Metrics
	Log     *zap.Logger

	// Tracker is optional; when nil a fresh tracker is created. Passing one
	// lets the status poller share the engine's pending-bundle set.
	Tracker *tracker.Tracker
}

// Bot is the assembled sniper engine.
type Bot struct {
	cfg Config

	ws      solana.WSClient
	rpc     solana.RPCClient
	wallet  *wallet.Wallet
	relay   BundleSender
	results <-chan domain.BundleResult
	journal journal.TradeJournal
	sink    journal.ObservationSink
	metrics *observability.Metrics
	log     *zap.Logger

	tracker  *tracker.Tracker
	trigger  *trigger.Engine
	detector *removal.Detector

	obsCh chan *domain.PoolObservation

	// inflight tracks execution and removal goroutines for shutdown.
	inflight sync.WaitGroup
}

// New assembles a Bot from its configuration and collaborators.
func New(cfg Config, deps Deps) *Bot {
	if cfg.SinkFlushInterval <= 0 {
		cfg.SinkFlushInterval = 5 * time.Second
	}
	tr := deps.Tracker
	if tr == nil {
		tr = tracker.New(cfg.ReferenceMint)
	}
	return &Bot{
		cfg:      cfg,
		ws:       deps.WS,
		rpc:      deps.RPC,
		wallet:   deps.Wallet,
		relay:    deps.Relay,
		results:  deps.Results,
		journal:  deps.Journal,
		sink:     deps.Sink,
		metrics:  deps.Metrics,
		log:      deps.Log.Named("bot"),
		tracker:  tr,
		trigger:  trigger.NewEngine(cfg.TradeSizeLamports, cfg.MinSolTriggerLamports),
		detector: removal.NewDetector(deps.RPC, cfg.ReferenceMint, cfg.StableMint, cfg.LookupRetryInterval, cfg.LookupDeadline, deps.Log.Named("removal")),
		obsCh:    make(chan *domain.PoolObservation, 1024),
	}
}

// Tracker exposes the pending-bundle set for the status poller.
func (b *Bot) Tracker() *tracker.Tracker {
	return b.tracker
}

// Run subscribes both feeds and processes events until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	accounts, err := b.ws.SubscribeProgram(ctx, solana.ProgramFilter{
		Program:      raydium.AmmV4Program.String(),
		DataSize:     raydium.LiquidityStateSize,
		MemcmpOffset: raydium.MarketProgramIDOffset,
		MemcmpBytes:  raydium.OpenBookProgram.Bytes(),
	})
	if err != nil {
		return fmt.Errorf("subscribe pool accounts: %w", err)
	}

	logs, err := b.ws.SubscribeLogs(ctx, solana.LogsFilter{
		Mentions: []string{raydium.AmmV4Program.String()},
	})
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		b.runAccountFeed(ctx, accounts)
	}()
	go func() {
		defer wg.Done()
		b.runLogFeed(ctx, logs)
	}()
	go func() {
		defer wg.Done()
		b.runCorrelator(ctx)
	}()
	go func() {
		defer wg.Done()
		b.runSinkWriter(ctx)
	}()
	wg.Wait()

	b.inflight.Wait()
	return ctx.Err()
}

// runAccountFeed consumes pool account updates until the channel closes.
func (b *Bot) runAccountFeed(ctx context.Context, ch <-chan solana.AccountNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			b.handleAccountUpdate(ctx, n)
		}
	}
}

// handleAccountUpdate runs one pool sample through tracking and triggering.
// Execution runs on its own goroutine so a slow RPC never stalls the feed.
func (b *Bot) handleAccountUpdate(ctx context.Context, n solana.AccountNotification) {
	st, err := raydium.DecodeLiquidityState(n.Data)
	if err != nil {
		b.metrics.PoolDecodeErrors.Inc()
		b.log.Debug("undecodable pool account",
			zap.String("pubkey", n.Pubkey),
			zap.Error(err))
		return
	}

	obs, err := b.tracker.Observe(n.Pubkey, st)
	if err != nil {
		if errors.Is(err, tracker.ErrUnpriceablePool) {
			b.metrics.UnpriceablePools.Inc()
		}
		return
	}

	b.metrics.PoolUpdatesProcessed.Inc()
	b.metrics.LastPoolUpdate.Set(float64(time.Now().Unix()))
	b.queueObservation(obs, uint64(n.Slot))

	intent := b.trigger.Evaluate(obs)
	if intent == nil {
		return
	}

	if !b.tracker.TryClaim(intent.Mint) {
		b.metrics.ClaimsRejected.Inc()
		return
	}
	b.metrics.TriggersFired.WithLabelValues(string(intent.Side)).Inc()

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.execute(ctx, intent, st, obs)
	}()
}

// execute carries a claimed intent through key resolution, transaction
// assembly and bundle submission. Any failure releases the claim so the
// asset stays eligible.
func (b *Bot) execute(ctx context.Context, intent *trigger.Intent, st *raydium.LiquidityState, obs *tracker.Observation) {
	started := time.Now()

	keys, ok := b.tracker.Keys(intent.Mint)
	if !ok {
		var err error
		keys, err = b.resolveKeys(ctx, intent.PoolID, st)
		if err != nil {
			b.tracker.ReleaseClaim(intent.Mint)
			b.log.Warn("pool key resolution failed",
				zap.String("pool", intent.PoolID),
				zap.Error(err))
			return
		}
	}

	var amount uint64
	var amountDecimals uint8
	var sourceMint, destMint sol.PublicKey

	assetMint, refMint := keys.QuoteMint, keys.BaseMint
	if obs.IsBaseAsset {
		assetMint, refMint = keys.BaseMint, keys.QuoteMint
	}

	switch intent.Side {
	case domain.SideBuy:
		amount = intent.AmountLamports
		amountDecimals = domain.SolDecimals
		sourceMint, destMint = refMint, assetMint
	case domain.SideSell:
		bal, err := b.wallet.Balance(ctx, intent.Mint)
		if err != nil {
			b.tracker.ReleaseClaim(intent.Mint)
			b.log.Warn("balance lookup failed",
				zap.String("mint", intent.Mint),
				zap.Error(err))
			return
		}
		if bal == 0 {
			b.tracker.ReleaseClaim(intent.Mint)
			b.log.Debug("nothing to sell", zap.String("mint", intent.Mint))
			return
		}
		amount = bal
		amountDecimals = obs.Decimals
		sourceMint, destMint = assetMint, refMint
	}

	tip := b.cfg.Tip.TipLamports(intent.ExpectedProfit)

	blockhashStr, err := b.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		b.tracker.ReleaseClaim(intent.Mint)
		b.log.Warn("blockhash fetch failed", zap.Error(err))
		return
	}
	blockhash, err := sol.HashFromBase58(blockhashStr)
	if err != nil {
		b.tracker.ReleaseClaim(intent.Mint)
		b.log.Warn("malformed blockhash", zap.String("blockhash", blockhashStr), zap.Error(err))
		return
	}

	swapTx, err := raydium.BuildSwapTransaction(keys, b.wallet.PublicKey(), b.wallet.Signer(), sourceMint, destMint, amount, 0, blockhash)
	if err != nil {
		b.tracker.ReleaseClaim(intent.Mint)
		b.log.Warn("swap assembly failed", zap.String("mint", intent.Mint), zap.Error(err))
		return
	}
	tipTx, err := jito.BuildTipTransaction(tip, b.wallet.PublicKey(), blockhash, b.wallet.Signer())
	if err != nil {
		b.tracker.ReleaseClaim(intent.Mint)
		b.log.Warn("tip assembly failed", zap.Error(err))
		return
	}

	bundleID, err := b.relay.SendBundle(ctx, []*sol.Transaction{swapTx, tipTx})
	if err != nil {
		b.tracker.ReleaseClaim(intent.Mint)
		b.log.Warn("bundle submission failed",
			zap.String("mint", intent.Mint),
			zap.Error(err))
		return
	}

	b.tracker.RegisterPending(&tracker.PendingBundle{
		BundleID:    bundleID,
		Mint:        intent.Mint,
		PoolID:      intent.PoolID,
		Side:        intent.Side,
		Keys:        keys,
		Intended:    b.intendedState(intent, obs),
		SubmittedAt: time.Now(),
	})

	b.metrics.BundlesSubmitted.Inc()
	b.metrics.TipsPaidLamports.Add(float64(tip))
	b.metrics.PendingBundles.Inc()
	b.metrics.SubmitLatency.Observe(time.Since(started).Seconds())

	decision := &domain.TradeDecision{
		Side:           intent.Side,
		Mint:           intent.Mint,
		PoolID:         intent.PoolID,
		Amount:         amount,
		AmountUI:       domain.ScaleToUI(amount, amountDecimals),
		ExpectedProfit: intent.ExpectedProfit,
		TipLamports:    tip,
		BundleID:       bundleID,
		CreatedAt:      time.Now(),
	}

	b.log.Info("bundle submitted",
		zap.String("bundle", bundleID),
		zap.String("side", string(intent.Side)),
		zap.String("mint", intent.Mint),
		zap.Uint64("amount", amount),
		zap.Stringer("amount_ui", decision.AmountUI),
		zap.Uint64("tip", tip))

	b.record(ctx, decision.Submitted())
}

// intendedState is the asset state to commit if the bundle lands: the sampled
// counters become the new baseline and the phase advances.
func (b *Bot) intendedState(intent *trigger.Intent, obs *tracker.Observation) *domain.AssetState {
	state, ok := b.tracker.State(intent.Mint)
	if !ok {
		state = &domain.AssetState{
			Mint:        intent.Mint,
			IsBaseAsset: obs.IsBaseAsset,
			Decimals:    obs.Decimals,
		}
	}

	state.LastSolIn = obs.SolIn
	state.LastSolOut = obs.SolOut
	state.LastTokenIn = obs.TokenIn
	state.LastTokenOut = obs.TokenOut
	if intent.Side == domain.SideBuy {
		state.Phase = domain.PhaseBought
	} else {
		state.Phase = domain.PhaseExited
	}
	return state
}

// resolveKeys fetches and decodes the pool's OpenBook market account and
// combines it with the pool state into a routing descriptor.
func (b *Bot) resolveKeys(ctx context.Context, poolID string, st *raydium.LiquidityState) (*raydium.PoolKeys, error) {
	info, err := b.rpc.GetAccountInfo(ctx, st.MarketID.String())
	if err != nil {
		return nil, fmt.Errorf("fetch market account: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("market account %s does not exist", st.MarketID)
	}

	raw, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode market account: %w", err)
	}
	market, err := raydium.DecodeMarketState(raw)
	if err != nil {
		return nil, err
	}

	id, err := sol.PublicKeyFromBase58(poolID)
	if err != nil {
		return nil, fmt.Errorf("parse pool id: %w", err)
	}
	return raydium.ResolvePoolKeys(id, st, market)
}

// runLogFeed consumes log notifications until the channel closes, spawning a
// mint lookup for every removal-shaped transaction.
func (b *Bot) runLogFeed(ctx context.Context, ch <-chan solana.LogNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			b.metrics.LogLinesProcessed.Inc()
			if n.Err != nil {
				continue
			}
			if !removal.MatchesRemoval(n.Logs) {
				continue
			}
			b.metrics.RemovalSignatures.Inc()

			b.inflight.Add(1)
			go func(signature string) {
				defer b.inflight.Done()
				b.handleRemoval(ctx, signature)
			}(n.Signature)
		}
	}
}

// handleRemoval resolves a removal transaction to its asset mint and flags it.
func (b *Bot) handleRemoval(ctx context.Context, signature string) {
	mint, err := b.detector.ResolveMint(ctx, signature)
	if err != nil {
		switch {
		case errors.Is(err, removal.ErrLookupTimeout):
			b.metrics.LookupTimeouts.Inc()
			b.log.Warn("removal lookup timed out", zap.String("signature", signature))
		case errors.Is(err, removal.ErrUnsupportedPair):
			b.log.Debug("removal on unsupported pair", zap.String("signature", signature))
		case errors.Is(err, context.Canceled):
		default:
			b.log.Warn("removal lookup failed",
				zap.String("signature", signature),
				zap.Error(err))
		}
		return
	}

	b.metrics.RemovalsResolved.Inc()
	if b.tracker.MarkRemoved(mint) {
		b.log.Info("liquidity removal detected",
			zap.String("mint", mint),
			zap.String("signature", signature))
	}
}

// runCorrelator consumes bundle results and commits or releases the
// corresponding claims. Journal failures are logged and never stall the loop.
func (b *Bot) runCorrelator(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-b.results:
			if !ok {
				return
			}
			b.handleResult(ctx, res)
		}
	}
}

func (b *Bot) handleResult(ctx context.Context, res domain.BundleResult) {
	pb, ok := b.tracker.Resolve(res)
	if !ok {
		b.log.Debug("result for unknown bundle", zap.String("bundle", res.BundleID))
		return
	}

	ev := &domain.TradeEvent{
		BundleID:  res.BundleID,
		Side:      pb.Side,
		Mint:      pb.Mint,
		PoolID:    pb.PoolID,
		EventTime: time.Now(),
	}

	if res.Accepted != nil {
		ev.Status = domain.StatusAccepted
		ev.Slot = res.Accepted.Slot
		b.metrics.BundlesAccepted.Inc()
		b.metrics.PendingBundles.Dec()
		b.log.Info("bundle landed",
			zap.String("bundle", res.BundleID),
			zap.String("side", string(pb.Side)),
			zap.String("mint", pb.Mint),
			zap.Uint64("slot", res.Accepted.Slot))
	} else {
		ev.Status = domain.StatusRejected
		if res.Rejected != nil {
			ev.Reason = res.Rejected.Reason
		}
		b.metrics.BundlesRejected.WithLabelValues("relay").Inc()
		b.metrics.PendingBundles.Dec()
		b.log.Info("bundle rejected",
			zap.String("bundle", res.BundleID),
			zap.String("mint", pb.Mint),
			zap.String("reason", ev.Reason))
	}

	b.record(ctx, ev)
}

// record journals one trade event, logging instead of failing on error.
func (b *Bot) record(ctx context.Context, ev *domain.TradeEvent) {
	if b.journal == nil {
		return
	}
	if err := b.journal.Record(ctx, ev); err != nil {
		b.metrics.JournalWriteErrors.WithLabelValues("journal", "record").Inc()
		b.log.Warn("trade journal write failed",
			zap.String("bundle", ev.BundleID),
			zap.Error(err))
	}
}

// queueObservation hands a sample to the sink writer. The trading path never
// blocks on analytics: samples are dropped when the buffer is full.
func (b *Bot) queueObservation(obs *tracker.Observation, slot uint64) {
	if b.sink == nil {
		return
	}
	point := &domain.PoolObservation{
		PoolID:        obs.PoolID,
		Mint:          obs.Mint,
		Slot:          slot,
		SolInDelta:    obs.Delta.SolIn,
		SolOutDelta:   obs.Delta.SolOut,
		TokenInDelta:  obs.Delta.TokenIn,
		TokenOutDelta: obs.Delta.TokenOut,
		ObservedAtMs:  time.Now().UnixMilli(),
	}
	select {
	case b.obsCh <- point:
	default:
	}
}

// runSinkWriter batches queued observations and flushes them periodically.
func (b *Bot) runSinkWriter(ctx context.Context) {
	if b.sink == nil {
		return
	}

	ticker := time.NewTicker(b.cfg.SinkFlushInterval)
	defer ticker.Stop()

	var batch []*domain.PoolObservation
	flush := func(flushCtx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := b.sink.WriteObservations(flushCtx, batch); err != nil {
			b.metrics.JournalWriteErrors.WithLabelValues("sink", "write").Inc()
			b.log.Warn("observation sink write failed",
				zap.Int("points", len(batch)),
				zap.Error(err))
		}
		batch = nil
	}

	for {
		select {
		case <-ctx.Done():
			// Drain what is buffered, then flush with a fresh deadline.
			for {
				select {
				case p := <-b.obsCh:
					batch = append(batch, p)
					continue
				default:
				}
				break
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(flushCtx)
			cancel()
			return
		case p := <-b.obsCh:
			batch = append(batch, p)
			if len(batch) >= 256 {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
