package wallet

import (
	"context"
	"encoding/json"
	"errors"
)

// EIP-1193 methods used by selfkeeper.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodPersonalSign    = "personal_sign"
)

// Provider error codes from EIP-1193.
const (
	CodeUserRejected      = 4001
	CodeUnsupportedMethod = 4200
)

var (
	ErrNoProvider        = errors.New("no wallet provider available")
	ErrUserRejected      = errors.New("user rejected the request")
	ErrUnsupportedMethod = errors.New("unsupported provider method")
	ErrSelectorClosed    = errors.New("wallet selector is closed")
)

// RawProvider is an EIP-1193 style wallet provider.
type RawProvider interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}
