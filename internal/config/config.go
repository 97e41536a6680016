// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/raydium"
)

// Config is the full runtime configuration of the sniper.
type Config struct {
	// Endpoints
	RPCHTTPEndpoint string
	RPCWSEndpoint   string
	BlockEngineURLs []string

	// Wallet
	WalletPrivateKey string

	// Market orientation
	ReferenceMint string
	StableMint    string
	Commitment    string

	// Trade sizing
	TradeSizeLamports     uint64
	MinSolTriggerLamports uint64
	TipPercent            uint64
	DefaultTipLamports    uint64
	MinTipProfitLamports  uint64

	// Timing
	LookupRetryInterval time.Duration
	LookupDeadline      time.Duration
	BundlePollInterval  time.Duration
	BundleMaxAge        time.Duration

	// Journal backends (optional; empty disables that backend)
	PostgresDSN   string
	ClickhouseDSN string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first without overriding already-set variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RPCHTTPEndpoint:  os.Getenv("RPC_HTTP_ENDPOINT"),
		RPCWSEndpoint:    os.Getenv("RPC_WS_ENDPOINT"),
		WalletPrivateKey: os.Getenv("WALLET_PRIVATE_KEY"),
		ReferenceMint:    envOr("REFERENCE_MINT", raydium.WSOLMint),
		StableMint:       envOr("STABLE_MINT", raydium.USDCMint),
		Commitment:       envOr("COMMITMENT", "confirmed"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:    os.Getenv("CLICKHOUSE_DSN"),
	}

	for _, raw := range strings.Split(os.Getenv("BLOCK_ENGINE_URLS"), ",") {
		if u := strings.TrimSpace(raw); u != "" {
			cfg.BlockEngineURLs = append(cfg.BlockEngineURLs, u)
		}
	}

	var err error
	collect := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}

	cfg.TradeSizeLamports, err = envUint("TRADE_SIZE_LAMPORTS", 10_000_000)
	collect(err)
	v, e := envUint("MIN_SOL_TRIGGER_LAMPORTS", 1_000_000)
	cfg.MinSolTriggerLamports = v
	collect(e)
	v, e = envUint("TIP_PERCENT", 10)
	cfg.TipPercent = v
	collect(e)
	v, e = envUint("DEFAULT_TIP_LAMPORTS", 100_000)
	cfg.DefaultTipLamports = v
	collect(e)
	v, e = envUint("MIN_TIP_PROFIT_LAMPORTS", 1_000_000)
	cfg.MinTipProfitLamports = v
	collect(e)

	d, e := envDuration("LOOKUP_RETRY_INTERVAL", time.Second)
	cfg.LookupRetryInterval = d
	collect(e)
	d, e = envDuration("LOOKUP_DEADLINE", 30*time.Second)
	cfg.LookupDeadline = d
	collect(e)
	d, e = envDuration("BUNDLE_POLL_INTERVAL", 2*time.Second)
	cfg.BundlePollInterval = d
	collect(e)
	d, e = envDuration("BUNDLE_MAX_AGE", 90*time.Second)
	cfg.BundleMaxAge = d
	collect(e)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete enough to run,
// collecting every problem rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []string

	if c.RPCHTTPEndpoint == "" {
		errs = append(errs, "RPC_HTTP_ENDPOINT is required")
	}
	if c.RPCWSEndpoint == "" {
		errs = append(errs, "RPC_WS_ENDPOINT is required")
	}
	if c.WalletPrivateKey == "" {
		errs = append(errs, "WALLET_PRIVATE_KEY is required")
	}
	if len(c.BlockEngineURLs) == 0 {
		errs = append(errs, "BLOCK_ENGINE_URLS is required")
	}
	if c.TradeSizeLamports == 0 {
		errs = append(errs, "TRADE_SIZE_LAMPORTS must be positive")
	}
	if c.TipPercent > 100 {
		errs = append(errs, "TIP_PERCENT must be at most 100")
	}
	if c.ReferenceMint == c.StableMint {
		errs = append(errs, "REFERENCE_MINT and STABLE_MINT must differ")
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		errs = append(errs, fmt.Sprintf("COMMITMENT %q is not a valid commitment level", c.Commitment))
	}
	if c.LookupRetryInterval <= 0 {
		errs = append(errs, "LOOKUP_RETRY_INTERVAL must be positive")
	}
	if c.LookupDeadline <= 0 {
		errs = append(errs, "LOOKUP_DEADLINE must be positive")
	}
	if c.BundlePollInterval <= 0 {
		errs = append(errs, "BUNDLE_POLL_INTERVAL must be positive")
	}

	if len(errs) > 0 {
		return errors.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) (uint64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
