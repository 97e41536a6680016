// Package jito submits transaction bundles to Jito block engines and tracks
// their fate. Bundles pair a swap transaction with a tip transfer; the tip is
// what bids for inclusion in the block engine's auction.
package jito

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"
)

// ErrRelayUnavailable is returned when no configured block engine accepted
// the bundle.
var ErrRelayUnavailable = errors.New("jito: no block engine reachable")

// MaxBundleTxs is the block engine's per-bundle transaction limit.
const MaxBundleTxs = 5

// tipAccounts are the block engine's tip-collection accounts. One is chosen
// at random per bundle to spread write-lock contention.
var tipAccounts = []string{
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKzYCN",
}

// RandomTipAccount returns one of the block engine tip accounts.
func RandomTipAccount() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(tipAccounts[rand.Intn(len(tipAccounts))])
}

// BuildTipTransaction builds and signs a standalone lamport transfer to a
// random tip account.
func BuildTipTransaction(
	tipLamports uint64,
	payer solana.PublicKey,
	blockhash solana.Hash,
	signer func(solana.PublicKey) *solana.PrivateKey,
) (*solana.Transaction, error) {
	ix := system.NewTransferInstruction(tipLamports, payer, RandomTipAccount()).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("jito: build tip transaction: %w", err)
	}
	if _, err := tx.Sign(signer); err != nil {
		return nil, fmt.Errorf("jito: sign tip transaction: %w", err)
	}
	return tx, nil
}

// Relay is a JSON-RPC client over one or more block engine endpoints.
// Endpoints are tried in order; the first accepting engine wins.
type Relay struct {
	endpoints []string
	client    *http.Client
	log       *zap.Logger
}

// NewRelay creates a Relay over the given block engine bundle endpoints.
func NewRelay(endpoints []string, log *zap.Logger) *Relay {
	return &Relay{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// SendBundle submits signed transactions as one bundle and returns the
// engine-assigned bundle id. The id is the correlation handle for the
// asynchronous accept/reject result.
func (r *Relay) SendBundle(ctx context.Context, txs []*solana.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", errors.New("jito: empty bundle")
	}
	if len(txs) > MaxBundleTxs {
		return "", fmt.Errorf("jito: bundle of %d exceeds limit of %d", len(txs), MaxBundleTxs)
	}

	encoded := make([]string, len(txs))
	for i, tx := range txs {
		if len(tx.Signatures) == 0 {
			return "", fmt.Errorf("jito: transaction %d is unsigned", i)
		}
		raw, err := tx.MarshalBinary()
		if err != nil {
			return "", fmt.Errorf("jito: encode transaction %d: %w", i, err)
		}
		encoded[i] = base64.StdEncoding.EncodeToString(raw)
	}

	params := []any{encoded, map[string]string{"encoding": "base64"}}

	var lastErr error
	for _, endpoint := range r.endpoints {
		var id string
		if err := r.call(ctx, endpoint, "sendBundle", params, &id); err != nil {
			r.log.Warn("block engine rejected bundle submission",
				zap.String("endpoint", endpoint),
				zap.Error(err))
			lastErr = err
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: %v", ErrRelayUnavailable, lastErr)
}

// bundleStatus is one entry of a getBundleStatuses response.
type bundleStatus struct {
	BundleID           string          `json:"bundle_id"`
	Slot               uint64          `json:"slot"`
	ConfirmationStatus string          `json:"confirmation_status"`
	Err                json.RawMessage `json:"err"`
}

type bundleStatusesResult struct {
	Value []*bundleStatus `json:"value"`
}

// BundleStatuses queries the fate of up to five bundle ids. Ids the engine
// has not landed or dropped yet come back as nil entries.
func (r *Relay) BundleStatuses(ctx context.Context, ids []string) ([]*bundleStatus, error) {
	var lastErr error
	for _, endpoint := range r.endpoints {
		var res bundleStatusesResult
		if err := r.call(ctx, endpoint, "getBundleStatuses", []any{ids}, &res); err != nil {
			lastErr = err
			continue
		}
		return res.Value, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrRelayUnavailable, lastErr)
}

func (r *Relay) call(ctx context.Context, endpoint, method string, params, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: http %d: %s", method, resp.StatusCode, raw)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: %w", method, envelope.Error)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}
