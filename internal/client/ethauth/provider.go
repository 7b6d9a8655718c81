// Package ethauth builds the credential an Ethereum wallet presents to the
// identity network.
package ethauth

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/selfkeeper/internal/caip"
	"github.com/dmitrijs2005/selfkeeper/internal/client/wallet"
	"github.com/dmitrijs2005/selfkeeper/internal/client/web3"
	"github.com/ethereum/go-ethereum/common"
)

var ErrCredentialConsumed = errors.New("credential already used")

// EthereumAuthProvider signs sign-in challenges with one wallet account.
// It answers a single challenge.
type EthereumAuthProvider struct {
	raw     wallet.RawProvider
	account caip.AccountID

	mu   sync.Mutex
	used bool
}

// NewEthereumAuthProvider asks raw for its chain and binds the credential to
// address on that chain.
func NewEthereumAuthProvider(ctx context.Context, raw wallet.RawProvider, address common.Address) (*EthereumAuthProvider, error) {
	chainID, err := web3.ChainID(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &EthereumAuthProvider{raw: raw, account: caip.NewAccountID(chainID, address)}, nil
}

// AccountID returns the CAIP-10 account id.
func (p *EthereumAuthProvider) AccountID() string {
	return p.account.String()
}

// Authenticate signs message with personal_sign. Only the first call signs.
func (p *EthereumAuthProvider) Authenticate(ctx context.Context, message string) (string, error) {
	p.mu.Lock()
	if p.used {
		p.mu.Unlock()
		return "", ErrCredentialConsumed
	}
	p.used = true
	p.mu.Unlock()

	return web3.PersonalSign(ctx, p.raw, p.account.Address, message)
}
