package web3

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/selfkeeper/internal/client/wallet"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approveAll(context.Context, string) (bool, error) { return true, nil }

func connectedLocal(t *testing.T) *wallet.LocalProvider {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	p := wallet.NewLocalProvider(key, 11155111, approveAll)
	_, err = p.Request(context.Background(), wallet.MethodRequestAccounts)
	require.NoError(t, err)
	return p
}

func TestWeb3Provider_Address(t *testing.T) {
	raw := connectedLocal(t)
	p := NewWeb3Provider(raw)

	assert.Same(t, raw, p.Provider())

	addr, err := p.Signer().Address(context.Background())
	require.NoError(t, err)
	assert.Equal(t, raw.Address(), addr)

	chain, err := p.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), chain)
}

func TestWeb3Provider_NoAccounts(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	p := NewWeb3Provider(wallet.NewLocalProvider(key, 5, approveAll))

	_, err = p.Signer().Address(context.Background())
	require.ErrorIs(t, err, ErrNoAccounts)
}

func TestSigner_SignMessage(t *testing.T) {
	raw := connectedLocal(t)
	msg := "sign me"

	sigHex, err := NewWeb3Provider(raw).Signer().SignMessage(context.Background(), msg)
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(msg)), sig)
	require.NoError(t, err)
	assert.Equal(t, raw.Address(), crypto.PubkeyToAddress(*pub))
}
