package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// InjectedProvider forwards requests to an Ethereum JSON-RPC endpoint.
type InjectedProvider struct {
	client *rpc.Client
}

func NewInjectedProvider(client *rpc.Client) *InjectedProvider {
	return &InjectedProvider{client: client}
}

// DialInjected connects to the JSON-RPC endpoint at url.
func DialInjected(ctx context.Context, url string) (*InjectedProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial provider: %w", err)
	}
	return NewInjectedProvider(client), nil
}

func (p *InjectedProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	var result json.RawMessage
	if err := p.client.CallContext(ctx, &result, method, params...); err != nil {
		return nil, mapRPCError(method, err)
	}
	return result, nil
}

func (p *InjectedProvider) Close() {
	p.client.Close()
}

func mapRPCError(method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case CodeUserRejected:
			return fmt.Errorf("%s: %w", method, ErrUserRejected)
		case CodeUnsupportedMethod:
			return fmt.Errorf("%s: %w", method, ErrUnsupportedMethod)
		}
	}
	return fmt.Errorf("%s: %w", method, err)
}

// InjectedDetector offers the endpoint at url as the injected wallet.
// An empty url means no injected wallet is present.
func InjectedDetector(url string) Detector {
	return func() (ProviderOption, bool) {
		if url == "" {
			return ProviderOption{}, false
		}
		return ProviderOption{
			Display: "Injected provider (" + url + ")",
			Open: func(ctx context.Context) (RawProvider, error) {
				return DialInjected(ctx, url)
			},
		}, true
	}
}
