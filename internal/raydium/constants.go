package raydium

import "github.com/gagliardetto/solana-go"

// Well-known program and mint addresses.
var (
	// AmmV4Program is the Raydium AMM v4 program.
	AmmV4Program = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	// AmmV4Authority is the fixed authority for all Raydium v4 pools.
	AmmV4Authority = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	// OpenBookProgram is the OpenBook (Serum v3) market program.
	OpenBookProgram = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")

	// WSOL is the wrapped SOL mint.
	WSOL = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	// USDC is the USDC mint.
	USDC = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

// WSOLMint and USDCMint are the base58 forms used in string-keyed maps.
const (
	WSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)
