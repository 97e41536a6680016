package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// swapBaseIn is the AMM v4 instruction tag for fixed-input swaps.
const swapBaseInTag = 9

// BuildSwapInstruction builds a Raydium v4 swapBaseIn instruction routed
// through the pool's OpenBook market. The account order follows the v4
// program's expected layout.
func BuildSwapInstruction(keys *PoolKeys, userSource, userDest, owner solana.PublicKey, amountIn, minAmountOut uint64) solana.Instruction {
	data := make([]byte, 17)
	data[0] = swapBaseInTag
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	accounts := solana.AccountMetaSlice{
		solana.Meta(solana.TokenProgramID),
		solana.Meta(keys.ID).WRITE(),
		solana.Meta(keys.Authority),
		solana.Meta(keys.OpenOrders).WRITE(),
		solana.Meta(keys.TargetOrders).WRITE(),
		solana.Meta(keys.BaseVault).WRITE(),
		solana.Meta(keys.QuoteVault).WRITE(),
		solana.Meta(keys.MarketProgramID),
		solana.Meta(keys.MarketID).WRITE(),
		solana.Meta(keys.MarketBids).WRITE(),
		solana.Meta(keys.MarketAsks).WRITE(),
		solana.Meta(keys.MarketEventQueue).WRITE(),
		solana.Meta(keys.MarketBaseVault).WRITE(),
		solana.Meta(keys.MarketQuoteVault).WRITE(),
		solana.Meta(keys.MarketAuthority),
		solana.Meta(userSource).WRITE(),
		solana.Meta(userDest).WRITE(),
		solana.Meta(owner).SIGNER().WRITE(),
	}

	return solana.NewInstruction(keys.ProgramID, accounts, data)
}

// BuildSwapTransaction assembles and signs a single-instruction swap
// transaction. Source and destination are the owner's associated token
// accounts for the two mints.
func BuildSwapTransaction(keys *PoolKeys, owner solana.PublicKey, signer func(solana.PublicKey) *solana.PrivateKey, sourceMint, destMint solana.PublicKey, amountIn, minAmountOut uint64, blockhash solana.Hash) (*solana.Transaction, error) {
	source, _, err := solana.FindAssociatedTokenAddress(owner, sourceMint)
	if err != nil {
		return nil, fmt.Errorf("derive source token account: %w", err)
	}
	dest, _, err := solana.FindAssociatedTokenAddress(owner, destMint)
	if err != nil {
		return nil, fmt.Errorf("derive destination token account: %w", err)
	}

	ix := BuildSwapInstruction(keys, source, dest, owner, amountIn, minAmountOut)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash,
		solana.TransactionPayer(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("build swap transaction: %w", err)
	}

	_, err = tx.Sign(signer)
	if err != nil {
		return nil, fmt.Errorf("sign swap transaction: %w", err)
	}

	return tx, nil
}
