package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/raydium"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RPC_HTTP_ENDPOINT", "https://rpc.example")
	t.Setenv("RPC_WS_ENDPOINT", "wss://rpc.example")
	t.Setenv("WALLET_PRIVATE_KEY", "key")
	t.Setenv("BLOCK_ENGINE_URLS", "https://mainnet.block-engine.jito.wtf")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, raydium.WSOLMint, cfg.ReferenceMint)
	assert.Equal(t, raydium.USDCMint, cfg.StableMint)
	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, uint64(10_000_000), cfg.TradeSizeLamports)
	assert.Equal(t, uint64(1_000_000), cfg.MinSolTriggerLamports)
	assert.Equal(t, uint64(10), cfg.TipPercent)
	assert.Equal(t, uint64(100_000), cfg.DefaultTipLamports)
	assert.Equal(t, time.Second, cfg.LookupRetryInterval)
	assert.Equal(t, 30*time.Second, cfg.LookupDeadline)
	assert.Equal(t, 2*time.Second, cfg.BundlePollInterval)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BLOCK_ENGINE_URLS", " https://a.example , https://b.example ,")
	t.Setenv("TRADE_SIZE_LAMPORTS", "25000000")
	t.Setenv("LOOKUP_DEADLINE", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.BlockEngineURLs)
	assert.Equal(t, uint64(25_000_000), cfg.TradeSizeLamports)
	assert.Equal(t, 45*time.Second, cfg.LookupDeadline)
}

func TestLoadRejectsMalformedNumber(t *testing.T) {
	setRequired(t)
	t.Setenv("TIP_PERCENT", "ten")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIP_PERCENT")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Commitment:          "instant",
		ReferenceMint:       "same",
		StableMint:          "same",
		TradeSizeLamports:   0,
		TipPercent:          150,
		LookupRetryInterval: time.Second,
		LookupDeadline:      time.Second,
		BundlePollInterval:  time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"RPC_HTTP_ENDPOINT",
		"RPC_WS_ENDPOINT",
		"WALLET_PRIVATE_KEY",
		"BLOCK_ENGINE_URLS",
		"TRADE_SIZE_LAMPORTS",
		"TIP_PERCENT",
		"REFERENCE_MINT",
		"COMMITMENT",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %s in %q", want, msg)
	}
}
