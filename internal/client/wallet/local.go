package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Approver asks the user to allow a wallet action.
type Approver func(ctx context.Context, prompt string) (bool, error)

// LocalProvider is a single-account wallet backed by an in-memory key.
// Account access and every signature go through the Approver.
type LocalProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID uint64
	approve Approver

	mu         sync.Mutex
	authorized bool
}

func NewLocalProvider(key *ecdsa.PrivateKey, chainID uint64, approve Approver) *LocalProvider {
	return &LocalProvider{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		approve: approve,
	}
}

func (p *LocalProvider) Address() common.Address {
	return p.address
}

func (p *LocalProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case MethodRequestAccounts:
		if err := p.ask(ctx, fmt.Sprintf("Allow selfkeeper to see account %s?", p.address.Hex())); err != nil {
			return nil, err
		}
		p.setAuthorized(true)
		return json.Marshal([]string{p.address.Hex()})

	case MethodAccounts:
		if !p.isAuthorized() {
			return json.Marshal([]string{})
		}
		return json.Marshal([]string{p.address.Hex()})

	case MethodChainID:
		return json.Marshal(hexutil.EncodeUint64(p.chainID))

	case MethodPersonalSign:
		return p.personalSign(ctx, params)

	default:
		return nil, fmt.Errorf("%s: %w", method, ErrUnsupportedMethod)
	}
}

func (p *LocalProvider) personalSign(ctx context.Context, params []any) (json.RawMessage, error) {
	if !p.isAuthorized() {
		return nil, fmt.Errorf("%s: %w", MethodPersonalSign, ErrUserRejected)
	}
	if len(params) != 2 {
		return nil, fmt.Errorf("%s: want [data, address], got %d params", MethodPersonalSign, len(params))
	}

	data, err := decodeSignData(params[0])
	if err != nil {
		return nil, err
	}
	addr, ok := params[1].(string)
	if !ok || !common.IsHexAddress(addr) || common.HexToAddress(addr) != p.address {
		return nil, fmt.Errorf("%s: unknown account %v", MethodPersonalSign, params[1])
	}

	if err := p.ask(ctx, "Sign this message?\n\n"+string(data)); err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(accounts.TextHash(data), p.key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return json.Marshal(hexutil.Encode(sig))
}

// decodeSignData accepts the message as 0x-prefixed hex or as plain text.
func decodeSignData(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errors.New("personal_sign: data must be a string")
	}
	if strings.HasPrefix(s, "0x") {
		if b, err := hexutil.Decode(s); err == nil {
			return b, nil
		}
	}
	return []byte(s), nil
}

func (p *LocalProvider) ask(ctx context.Context, prompt string) error {
	if p.approve == nil {
		return ErrUserRejected
	}
	ok, err := p.approve(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserRejected
	}
	return nil
}

func (p *LocalProvider) setAuthorized(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authorized = v
}

func (p *LocalProvider) isAuthorized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authorized
}
