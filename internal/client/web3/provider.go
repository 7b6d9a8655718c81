// Package web3 wraps a raw wallet provider with typed account and signing calls.
package web3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/selfkeeper/internal/client/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrNoAccounts = errors.New("wallet exposes no accounts")

// Web3Provider wraps a raw provider.
type Web3Provider struct {
	raw wallet.RawProvider
}

func NewWeb3Provider(raw wallet.RawProvider) *Web3Provider {
	return &Web3Provider{raw: raw}
}

// Provider returns the wrapped raw provider unchanged.
func (p *Web3Provider) Provider() wallet.RawProvider {
	return p.raw
}

// Signer returns the signer for the wallet's first account.
func (p *Web3Provider) Signer() *Signer {
	return &Signer{raw: p.raw}
}

// ChainID asks the wallet which chain it is on.
func (p *Web3Provider) ChainID(ctx context.Context) (uint64, error) {
	return ChainID(ctx, p.raw)
}

// Signer signs with the wallet's first account.
type Signer struct {
	raw wallet.RawProvider
}

// Address returns the first account reported by eth_accounts.
func (s *Signer) Address(ctx context.Context) (common.Address, error) {
	raw, err := s.raw.Request(ctx, wallet.MethodAccounts)
	if err != nil {
		return common.Address{}, err
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return common.Address{}, fmt.Errorf("decode %s: %w", wallet.MethodAccounts, err)
	}
	if len(accounts) == 0 {
		return common.Address{}, ErrNoAccounts
	}
	if !common.IsHexAddress(accounts[0]) {
		return common.Address{}, fmt.Errorf("wallet returned bad address %q", accounts[0])
	}
	return common.HexToAddress(accounts[0]), nil
}

// SignMessage signs msg with personal_sign and returns the 0x-hex signature.
func (s *Signer) SignMessage(ctx context.Context, msg string) (string, error) {
	addr, err := s.Address(ctx)
	if err != nil {
		return "", err
	}
	return PersonalSign(ctx, s.raw, addr, msg)
}

// PersonalSign asks raw to sign msg with addr.
func PersonalSign(ctx context.Context, raw wallet.RawProvider, addr common.Address, msg string) (string, error) {
	res, err := raw.Request(ctx, wallet.MethodPersonalSign, hexutil.Encode([]byte(msg)), addr.Hex())
	if err != nil {
		return "", err
	}

	var sig string
	if err := json.Unmarshal(res, &sig); err != nil {
		return "", fmt.Errorf("decode %s: %w", wallet.MethodPersonalSign, err)
	}
	if _, err := hexutil.Decode(sig); err != nil {
		return "", fmt.Errorf("wallet returned bad signature: %w", err)
	}
	return sig, nil
}

// ChainID reads eth_chainId from raw.
func ChainID(ctx context.Context, raw wallet.RawProvider) (uint64, error) {
	res, err := raw.Request(ctx, wallet.MethodChainID)
	if err != nil {
		return 0, err
	}

	var hex string
	if err := json.Unmarshal(res, &hex); err != nil {
		return 0, fmt.Errorf("decode %s: %w", wallet.MethodChainID, err)
	}
	id, err := hexutil.DecodeUint64(hex)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", wallet.MethodChainID, err)
	}
	return id, nil
}
