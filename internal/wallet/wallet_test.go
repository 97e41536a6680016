package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

type stubBalances struct {
	amounts []uint64
	err     error
	calls   int
}

func (s *stubBalances) TokenBalance(_ context.Context, _, _ string) (uint64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if s.calls > len(s.amounts) {
		return s.amounts[len(s.amounts)-1], nil
	}
	return s.amounts[s.calls-1], nil
}

func newTestWallet(t *testing.T, source BalanceSource) *Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := New(key.String(), source)
	require.NoError(t, err)
	return w
}

func TestNewRejectsGarbageKey(t *testing.T) {
	_, err := New("not-a-key", nil)
	require.Error(t, err)
}

func TestBalanceCachesFirstNonZero(t *testing.T) {
	src := &stubBalances{amounts: []uint64{42_000, 99_999}}
	w := newTestWallet(t, src)

	bal, err := w.Balance(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000), bal)

	// Second read is served from cache even though the chain moved on.
	bal, err = w.Balance(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000), bal)
	assert.Equal(t, 1, src.calls)
}

func TestBalanceZeroNotCached(t *testing.T) {
	src := &stubBalances{amounts: []uint64{0, 0, 7_500}}
	w := newTestWallet(t, src)

	for i := 0; i < 2; i++ {
		bal, err := w.Balance(context.Background(), testMint)
		require.NoError(t, err)
		assert.Zero(t, bal)
	}

	bal, err := w.Balance(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(7_500), bal)
	assert.Equal(t, 3, src.calls)
}

func TestBalanceUnavailable(t *testing.T) {
	src := &stubBalances{err: errors.New("rpc down")}
	w := newTestWallet(t, src)

	_, err := w.Balance(context.Background(), testMint)
	require.ErrorIs(t, err, ErrBalanceUnavailable)
}

func TestSignerResolvesOwnKeyOnly(t *testing.T) {
	w := newTestWallet(t, nil)

	signer := w.Signer()
	require.NotNil(t, signer(w.PublicKey()))

	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	assert.Nil(t, signer(other.PublicKey()))
}
